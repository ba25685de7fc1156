package clientcli

import "fmt"

func printHelp() {
	fmt.Println(`Commands:
  upload <localfile> [name]    Upload a local file (replicated across storage nodes)
  download <name> [localfile]  Download a file
  nodes                        List registered storage nodes
  locate <name>                Show which nodes hold a file
  status                       Show client ID and current coordinator
  help                         Show this help
  exit                         Quit the client`)
}
