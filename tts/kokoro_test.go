package tts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewKokoro(t *testing.T) {
	service := NewKokoro("test-token")
	if service == nil {
		t.Fatal("NewKokoro() returned nil")
	}

	if service.replicate == nil {
		t.Fatal("replicate client was not created")
	}
}

func TestKokoroService_Name(t *testing.T) {
	service := NewKokoro("test-token")
	if service.Name() != "kokoro" {
		t.Errorf("Name() = %v, want kokoro", service.Name())
	}
}

func TestKokoroService_Synthesize_EmptyText(t *testing.T) {
	service := NewKokoro("test-token")
	_, err := service.Synthesize(context.Background(), "", SynthesisConfig{})
	if err != ErrEmptyText {
		t.Errorf("Synthesize() error = %v, want ErrEmptyText", err)
	}
}

func TestKokoroService_Synthesize_Success(t *testing.T) {
	var receivedInput map[string]interface{}

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/audio" {
			w.Write([]byte("kokoro audio"))
			return
		}

		var req replicatePredictionRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Version != kokoroVersion {
			t.Errorf("Version = %v, want %v", req.Version, kokoroVersion)
		}
		receivedInput = req.Input

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "pred-1",
			"status": replicateStatusSucceeded,
			"output": server.URL + "/audio",
		})
	}))
	defer server.Close()

	service := NewKokoro("test-token",
		WithKokoroReplicate(newTestReplicate(server.URL)))

	reader, err := service.Synthesize(context.Background(), "Hello world", SynthesisConfig{
		Voice: "am_adam",
		Speed: 1.2,
	})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	if string(data) != "kokoro audio" {
		t.Errorf("data = %v, want kokoro audio", string(data))
	}

	if receivedInput["text"] != "Hello world" {
		t.Errorf("input text = %v, want Hello world", receivedInput["text"])
	}

	if receivedInput["voice"] != "am_adam" {
		t.Errorf("input voice = %v, want am_adam", receivedInput["voice"])
	}

	if receivedInput["speed"] != 1.2 {
		t.Errorf("input speed = %v, want 1.2", receivedInput["speed"])
	}
}

func TestKokoroService_Synthesize_Defaults(t *testing.T) {
	var receivedInput map[string]interface{}

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/audio" {
			w.Write([]byte("audio"))
			return
		}

		var req replicatePredictionRequest
		json.NewDecoder(r.Body).Decode(&req)
		receivedInput = req.Input

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "pred-1",
			"status": replicateStatusSucceeded,
			"output": server.URL + "/audio",
		})
	}))
	defer server.Close()

	service := NewKokoro("test-token",
		WithKokoroReplicate(newTestReplicate(server.URL)))

	reader, err := service.Synthesize(context.Background(), "Hello", SynthesisConfig{})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	reader.Close()

	if receivedInput["voice"] != kokoroDefaultVoice {
		t.Errorf("input voice = %v, want %v", receivedInput["voice"], kokoroDefaultVoice)
	}

	if receivedInput["speed"] != 1.0 {
		t.Errorf("input speed = %v, want 1.0", receivedInput["speed"])
	}
}

func TestKokoroService_SupportedVoices(t *testing.T) {
	service := NewKokoro("test-token")
	voices := service.SupportedVoices()

	if len(voices) != 10 {
		t.Fatalf("len(SupportedVoices()) = %v, want 10", len(voices))
	}

	if voices[0].ID != kokoroDefaultVoice {
		t.Errorf("voices[0].ID = %v, want %v", voices[0].ID, kokoroDefaultVoice)
	}

	// British voices carry the en-gb language tag
	for _, v := range voices {
		wantLang := "en-us"
		if v.ID[0] == 'b' {
			wantLang = "en-gb"
		}
		if v.Language != wantLang {
			t.Errorf("voice %v language = %v, want %v", v.ID, v.Language, wantLang)
		}
	}
}

func TestKokoroService_SupportedFormats(t *testing.T) {
	service := NewKokoro("test-token")
	formats := service.SupportedFormats()

	if len(formats) != 1 || formats[0].Name != "wav" {
		t.Errorf("SupportedFormats() = %v, want [wav]", formats)
	}
}
