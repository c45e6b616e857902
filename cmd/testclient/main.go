// Command testclient exercises a running service: it checks /health, posts
// one audio file to /transcribe, and prints the transcript.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8000", "service base URL")
	language := flag.String("language", "", "language hint (default: service default)")
	words := flag.Bool("words", false, "request word timestamps")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: testclient [flags] <audio-file>")
	}
	audioPath := flag.Arg(0)

	client := &http.Client{Timeout: 10 * time.Minute}

	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		log.Fatalf("health check failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	log.Printf("health: %d %s", resp.StatusCode, body)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		log.Fatalf("create form file: %v", err)
	}
	f, err := os.Open(audioPath)
	if err != nil {
		log.Fatalf("open audio: %v", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		log.Fatalf("copy audio: %v", err)
	}
	f.Close()
	if *language != "" {
		mw.WriteField("language", *language)
	}
	if *words {
		mw.WriteField("word_timestamps", "true")
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, *baseURL+"/transcribe", &buf)
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	resp, err = client.Do(req)
	if err != nil {
		log.Fatalf("transcribe request failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ = io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("transcribe failed: %d %s", resp.StatusCode, body)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		pretty.Write(body)
	}
	fmt.Println(pretty.String())
	log.Printf("transcribed in %s", time.Since(start).Round(time.Millisecond))
}
