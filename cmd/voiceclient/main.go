// voiceclient drives the voice capture endpoints end to end: sign in, start
// a recording, stream an audio file up in chunks and print the transcript.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// Stream audio in chunks to simulate live capture.
// At 44.1kHz stereo 128kbps ~ 16000 bytes/second; 100ms chunks.
const chunkSize = 1600
const chunkInterval = 100 * time.Millisecond

func main() {
	audioFile := flag.String("audio", "testdata/sample.webm", "Path to an encoded audio file")
	serverAddr := flag.String("server", "http://localhost:8080", "Service base URL")
	email := flag.String("email", "demo@example.com", "Account email")
	password := flag.String("password", "demo-password", "Account password")
	flag.Parse()

	client := &http.Client{Timeout: 30 * time.Second}

	signIn(client, *serverAddr, *email, *password)

	if !requestPermissions(client, *serverAddr) {
		log.Fatal("Capture permission denied")
	}

	post(client, *serverAddr+"/v1/voice/recordings", nil, http.StatusCreated)
	log.Println("Recording started")

	f, err := os.Open(*audioFile)
	if err != nil {
		log.Fatalf("Failed to open audio file: %v", err)
	}
	defer f.Close()

	chunk := make([]byte, chunkSize)
	var totalBytes int64
	var chunkNum int
	for {
		n, err := f.Read(chunk)
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to read audio: %v", err)
		}

		chunkNum++
		totalBytes += int64(n)
		post(client, *serverAddr+"/v1/voice/recordings/chunks", chunk[:n], http.StatusAccepted)

		if chunkNum%10 == 0 {
			log.Printf("Sent %d chunks (%d bytes)", chunkNum, totalBytes)
		}
		time.Sleep(chunkInterval)
	}
	log.Printf("Audio upload complete: %d chunks, %d bytes", chunkNum, totalBytes)

	body := post(client, *serverAddr+"/v1/voice/recordings/stop", nil, http.StatusOK)
	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		log.Fatalf("Failed to decode transcript: %v", err)
	}
	fmt.Printf("Transcript: %s\n", result.Text)
}

func signIn(client *http.Client, base, email, password string) {
	payload, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := client.Post(base+"/v1/auth/signin", "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("Sign-in failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		log.Fatalf("Sign-in returned %s: %s", resp.Status, detail)
	}
	log.Printf("Signed in as %s", email)
}

func requestPermissions(client *http.Client, base string) bool {
	body := post(client, base+"/v1/voice/permissions", nil, http.StatusOK)
	var result struct {
		Granted bool `json:"granted"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		log.Fatalf("Failed to decode permission response: %v", err)
	}
	return result.Granted
}

func post(client *http.Client, url string, payload []byte, wantStatus int) []byte {
	resp, err := client.Post(url, "application/octet-stream", bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("POST %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		log.Fatalf("POST %s returned %s: %s", url, resp.Status, body)
	}
	return body
}
