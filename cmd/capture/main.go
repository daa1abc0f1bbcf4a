package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/oauth2"

	"github.com/nitvob/outbrandai-webcam-recorder/internal/capture"
	"github.com/nitvob/outbrandai-webcam-recorder/internal/client"
)

func main() {
	server := flag.String("server", "http://localhost:3000", "Recording API base URL")
	token := flag.String("token", os.Getenv("WEBCAM_TOKEN"), "Bearer token (defaults to WEBCAM_TOKEN)")
	duration := flag.Duration("duration", 5*time.Second, "How long to record before uploading")
	name := flag.String("name", "recording.webm", "Filename to upload as")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: capture [-server url] [-token t] <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  record <file>  Replay a media file as a capture session and upload it")
		fmt.Println("  list           Show past uploads, newest first")
		os.Exit(1)
	}

	if *token == "" {
		log.Fatal("No token provided: set -token or WEBCAM_TOKEN")
	}

	api := client.New(*server, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: *token}))
	ctx := context.Background()

	switch command := flag.Arg(0); command {
	case "record":
		if flag.NArg() < 2 {
			log.Fatal("record requires a media file: capture record clip.webm")
		}
		if err := record(ctx, api, flag.Arg(1), *name, *duration); err != nil {
			log.Fatalf("Recording failed: %v", err)
		}

	case "list":
		records, err := api.PastUploads(ctx)
		if err != nil {
			log.Fatalf("Failed to fetch uploads: %v", err)
		}
		if len(records) == 0 {
			fmt.Println("No uploads yet")
			return
		}
		for _, rec := range records {
			fmt.Printf("%s  %s\n  %s\n", rec.UploadDateTime.Format(time.RFC3339), rec.Name, rec.URL)
		}

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Usage: capture [-server url] [-token t] <command>")
		os.Exit(1)
	}
}

func record(ctx context.Context, api *client.Client, path, name string, duration time.Duration) error {
	source := &capture.FileSource{Path: path}
	session := capture.NewSession(source, api, consoleNotifier{})
	session.Filename = name
	defer session.Close()

	if err := session.StartRecording(ctx); err != nil {
		return err
	}
	fmt.Printf("Recording %s for %s...\n", path, duration)
	time.Sleep(duration)

	if err := session.StopRecording(); err != nil {
		return err
	}
	fmt.Printf("Captured %d bytes, uploading\n", len(session.Blob()))

	return session.Upload(ctx)
}

// consoleNotifier prints session notifications the way the web UI would
// toast them.
type consoleNotifier struct{}

func (consoleNotifier) Notify(n capture.Notification) {
	fmt.Printf("[%s] %s: %s\n", n.Severity, n.Summary, n.Detail)
}
