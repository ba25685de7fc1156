// Command smoketest exercises a running cluster end to end: upload a
// file, verify every replica, download it back, and check lock
// exclusivity between two client identities.
package main

import (
	"bytes"
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"go-dfs/internal/transport"
	dfs "go-dfs/pkg/dfs-sdk"
)

func main() {
	coordinators := flag.String("coordinators", "localhost:5000,localhost:5001,localhost:5002", "Comma-separated coordinator addresses")
	filename := flag.String("file", "smoketest.txt", "Filename to upload")
	flag.Parse()

	addrs := strings.Split(*coordinators, ",")
	payload := []byte("smoke test payload " + time.Now().Format(time.RFC3339Nano))

	client, err := dfs.New(addrs)
	if err != nil {
		log.Fatalf("create client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Printf("uploading %q (%d bytes)", *filename, len(payload))
	if err := client.Upload(ctx, *filename, payload); err != nil {
		log.Fatalf("upload failed: %v", err)
	}

	replicas, err := client.ResolveFile(ctx, *filename)
	if err != nil {
		log.Fatalf("resolve failed: %v", err)
	}
	log.Printf("registered replicas: %v", replicas)

	for _, node := range replicas {
		resp, err := transport.Send(node, transport.Request{
			Cmd:      transport.CmdGetFile,
			Filename: *filename,
		}, 2*time.Second)
		if err != nil || !bytes.Equal(resp.Data, payload) {
			log.Fatalf("replica %s does not hold the payload (err=%v)", node, err)
		}
		log.Printf("replica %s verified", node)
	}

	data, err := client.Download(ctx, *filename)
	if err != nil {
		log.Fatalf("download failed: %v", err)
	}
	if !bytes.Equal(data, payload) {
		log.Fatalf("downloaded bytes differ from uploaded bytes")
	}
	log.Printf("download verified")

	// Two identities must never hold the same lock.
	first, err := dfs.New(addrs)
	if err != nil {
		log.Fatalf("create client: %v", err)
	}
	second, err := dfs.New(addrs)
	if err != nil {
		log.Fatalf("create client: %v", err)
	}

	lock := transport.Request{Cmd: transport.CmdLock, Filename: "smoketest.lock", ClientID: first.ClientID()}
	resp, err := transport.Send(addrs[0], lock, 2*time.Second)
	if err != nil || resp.Status != transport.StatusLockAcquired {
		log.Fatalf("first lock acquire failed: %v (%s)", err, resp.Status)
	}

	lock.ClientID = second.ClientID()
	resp, err = transport.Send(addrs[0], lock, 2*time.Second)
	if err != nil {
		log.Fatalf("second lock attempt errored: %v", err)
	}
	if resp.Status != transport.StatusLockDenied {
		log.Fatalf("lock exclusivity violated: second client got %q", resp.Status)
	}
	log.Printf("lock exclusivity verified")

	unlock := transport.Request{Cmd: transport.CmdUnlock, Filename: "smoketest.lock", ClientID: first.ClientID()}
	if _, err := transport.Send(addrs[0], unlock, 2*time.Second); err != nil {
		log.Printf("unlock failed, lease expiry will recover: %v", err)
	}

	log.Printf("smoke test passed")
}
