package pagination_test

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/informe-labs/informe/pkg/pagination"
)

var cfg = pagination.Config{DefaultPageSize: 25, MaxPageSize: 100}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name         string
		page         int
		pageSize     int
		wantPage     int
		wantPageSize int
	}{
		{"zero values", 0, 0, 1, 25},
		{"negative page", -3, 10, 1, 10},
		{"oversized page size", 1, 500, 1, 100},
		{"valid values unchanged", 4, 50, 4, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := pagination.PageRequest{Page: tt.page, PageSize: tt.pageSize}
			req.Normalize(cfg)

			if req.Page != tt.wantPage {
				t.Errorf("page = %d, want %d", req.Page, tt.wantPage)
			}
			if req.PageSize != tt.wantPageSize {
				t.Errorf("page size = %d, want %d", req.PageSize, tt.wantPageSize)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	req := pagination.PageRequest{Page: 3, PageSize: 25}
	if got := req.Offset(); got != 50 {
		t.Errorf("offset = %d, want 50", got)
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	values := url.Values{}
	values.Set("page", "2")
	values.Set("page_size", "10")
	values.Set("search", "sales")
	values.Set("sort", "question,-created_at")

	req := pagination.PageRequestFromQuery(values, cfg)

	if req.Page != 2 || req.PageSize != 10 {
		t.Errorf("page = %d size = %d", req.Page, req.PageSize)
	}
	if req.Search == nil || *req.Search != "sales" {
		t.Errorf("search = %v", req.Search)
	}
	if len(req.Sort) != 2 {
		t.Fatalf("sort fields = %d, want 2", len(req.Sort))
	}
	if req.Sort[1].Field != "created_at" || !req.Sort[1].Descending {
		t.Errorf("second sort = %+v, want descending created_at", req.Sort[1])
	}
}

func TestSortFieldsUnmarshalString(t *testing.T) {
	var req pagination.PageRequest
	if err := json.Unmarshal([]byte(`{"sort": "-updated_at"}`), &req); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(req.Sort) != 1 || !req.Sort[0].Descending {
		t.Errorf("sort = %+v", req.Sort)
	}
}

func TestSortFieldsUnmarshalArray(t *testing.T) {
	var req pagination.PageRequest
	data := `{"sort": [{"Field": "Question", "Descending": true}]}`
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(req.Sort) != 1 || req.Sort[0].Field != "Question" {
		t.Errorf("sort = %+v", req.Sort)
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		pageSize  int
		wantPages int
	}{
		{"even division", 100, 25, 4},
		{"remainder adds page", 101, 25, 5},
		{"empty result still one page", 0, 25, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pagination.NewPageResult([]string{"a"}, tt.total, 1, tt.pageSize)
			if result.TotalPages != tt.wantPages {
				t.Errorf("total pages = %d, want %d", result.TotalPages, tt.wantPages)
			}
		})
	}
}

func TestNewPageResultNilData(t *testing.T) {
	result := pagination.NewPageResult[string](nil, 0, 1, 25)
	if result.Data == nil {
		t.Error("expected empty slice, got nil")
	}
}
