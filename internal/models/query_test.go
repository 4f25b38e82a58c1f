package models

import (
	"errors"
	"testing"
)

func TestChatRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *ChatRequest
		wantErr bool
	}{
		{"missing message", &ChatRequest{}, true},
		{"blank message", &ChatRequest{Message: "  \n\t"}, true},
		{"valid message", &ChatRequest{Message: "Apa layanan Pelindo?"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrEmptyMessage) {
				t.Errorf("expected ErrEmptyMessage, got %v", err)
			}
		})
	}
}

func TestChunkMetadata_RoundTrip(t *testing.T) {
	m := ChunkMetadata{SourceDocument: "layanan.pdf", Page: 3}
	raw := m.Map()
	if raw[MetaSourceDocument] != "layanan.pdf" || raw[MetaPage] != "3" {
		t.Fatalf("Map() = %v", raw)
	}
	if got := MetadataFromMap(raw); got != m {
		t.Errorf("MetadataFromMap() = %+v, want %+v", got, m)
	}
	if got := MetadataFromMap(map[string]string{MetaPage: "x"}); got.Page != 0 {
		t.Errorf("malformed page should parse as 0, got %d", got.Page)
	}
}
