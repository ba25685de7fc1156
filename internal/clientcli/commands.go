package clientcli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

func getContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 120*time.Second)
}

func (a *App) cmdUpload(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: upload <localfile> [name]")
	}

	localPath := args[0]
	name := localPath
	if len(args) > 1 {
		name = args[1]
	}

	file, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	progress := NewTransferProgress(info.Size(), "Uploading")
	progress.Start()

	data, err := io.ReadAll(&ProgressReader{r: file, progress: progress})
	if err != nil {
		progress.Finish()
		return err
	}

	ctx, cancel := getContext()
	defer cancel()

	err = a.client.Upload(ctx, name, data)
	progress.Finish()
	if err != nil {
		return err
	}

	fmt.Printf("Uploaded %s as %q (%s)\n", localPath, name, formatBytes(info.Size()))
	return nil
}

func (a *App) cmdDownload(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: download <name> [localfile]")
	}

	name := args[0]
	localPath := name
	if len(args) > 1 {
		localPath = args[1]
	}

	ctx, cancel := getContext()
	defer cancel()

	data, err := a.client.Download(ctx, name)
	if err != nil {
		return err
	}

	out, err := os.Create(localPath)
	if err != nil {
		return err
	}
	defer out.Close()

	progress := NewTransferProgress(int64(len(data)), "Downloading")
	progress.Start()

	_, err = io.Copy(&ProgressWriter{w: out, progress: progress}, bytes.NewReader(data))
	progress.Finish()
	if err != nil {
		return err
	}

	fmt.Printf("Downloaded %q to %s (%s)\n", name, localPath, formatBytes(int64(len(data))))
	return nil
}

func (a *App) cmdNodes(args []string) error {
	ctx, cancel := getContext()
	defer cancel()

	nodes, err := a.client.GetNodes(ctx)
	if err != nil {
		return err
	}

	if len(nodes) == 0 {
		fmt.Println("No storage nodes registered")
		return nil
	}

	renderNodeTable(os.Stdout, nodes)
	return nil
}

func (a *App) cmdLocate(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: locate <name>")
	}

	ctx, cancel := getContext()
	defer cancel()

	nodes, err := a.client.ResolveFile(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s is replicated on:\n", args[0])
	renderNodeTable(os.Stdout, nodes)
	return nil
}

func (a *App) cmdStatus(args []string) error {
	fmt.Printf("Client ID:           %s\n", a.client.ClientID())
	fmt.Printf("Current coordinator: %s\n", a.client.Coordinator())

	ctx, cancel := getContext()
	defer cancel()

	nodes, err := a.client.GetNodes(ctx)
	if err != nil {
		fmt.Printf("Storage nodes:       unreachable (%v)\n", err)
		return nil
	}
	fmt.Printf("Storage nodes:       %d registered\n", len(nodes))
	return nil
}
