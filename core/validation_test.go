package core

import (
	"errors"
	"testing"
)

func TestValidateSource(t *testing.T) {
	tests := []struct {
		name    string
		source  Source
		wantErr error
	}{
		{
			name:    "valid document",
			source:  Source{Kind: SourceDocument, Location: "/tmp/handbook.pdf"},
			wantErr: nil,
		},
		{
			name:    "valid url",
			source:  Source{Kind: SourceURL, Location: "https://example.com"},
			wantErr: nil,
		},
		{
			name:    "valid spreadsheet",
			source:  Source{Kind: SourceSpreadsheet, Location: "/tmp/rates.xlsx"},
			wantErr: nil,
		},
		{
			name:    "unknown kind",
			source:  Source{Kind: 0, Location: "/tmp/x"},
			wantErr: ErrInvalidSource,
		},
		{
			name:    "empty location",
			source:  Source{Kind: SourceDocument},
			wantErr: ErrInvalidSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSource(tt.source)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateSource() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSource() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateIngestion(t *testing.T) {
	valid := []Source{{Kind: SourceDocument, Location: "/tmp/a.pdf"}}

	tests := []struct {
		name       string
		collection string
		sources    []Source
		wantErr    error
	}{
		{
			name:       "valid batch",
			collection: "handbook",
			sources:    valid,
			wantErr:    nil,
		},
		{
			name:       "empty collection",
			collection: "",
			sources:    valid,
			wantErr:    ErrEmptyCollection,
		},
		{
			name:       "empty source list",
			collection: "handbook",
			sources:    nil,
			wantErr:    ErrNoSources,
		},
		{
			name:       "bad source in batch",
			collection: "handbook",
			sources:    []Source{{Kind: SourceDocument}},
			wantErr:    ErrInvalidSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIngestion(tt.collection, tt.sources)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateIngestion() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateIngestion() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSearch(t *testing.T) {
	if err := ValidateSearch("what is the refund policy", 5); err != nil {
		t.Errorf("ValidateSearch() unexpected error: %v", err)
	}
	if err := ValidateSearch("", 5); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("ValidateSearch() error = %v, want ErrEmptyQuery", err)
	}
	if err := ValidateSearch("q", 0); !errors.Is(err, ErrInvalidTopK) {
		t.Errorf("ValidateSearch() error = %v, want ErrInvalidTopK", err)
	}
}
