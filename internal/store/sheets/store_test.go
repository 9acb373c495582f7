package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"testing"

	"google.golang.org/api/googleapi"

	"stockservice/internal/store"
)

func TestColumnLetter(t *testing.T) {
	tests := []struct {
		idx  int
		want string
	}{
		{0, "A"},
		{1, "B"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
		{701, "ZZ"},
		{702, "AAA"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := columnLetter(tt.idx); got != tt.want {
				t.Errorf("columnLetter(%d) = %q, want %q", tt.idx, got, tt.want)
			}
		})
	}
}

func TestCellRange(t *testing.T) {
	if got := cellRange("Inventaire", 1, 3); got != "'Inventaire'!B3" {
		t.Errorf("cellRange() = %q", got)
	}
	if got := cellRange("Chef's", 0, 2); got != "'Chef''s'!A2" {
		t.Errorf("cellRange() = %q", got)
	}
}

func TestToRecords(t *testing.T) {
	grid := [][]string{
		{"Nom", "Quantite", "Unite", "Prix_Unitaire"},
		{"Flour", "10", "kg", "2"},
		{"Eggs", "20"},
	}

	got := toRecords(grid)
	want := []store.Record{
		{"Nom": "Flour", "Quantite": "10", "Unite": "kg", "Prix_Unitaire": "2"},
		{"Nom": "Eggs", "Quantite": "20", "Unite": "", "Prix_Unitaire": ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("toRecords() = %v, want %v", got, want)
	}

	if got := toRecords(nil); got != nil {
		t.Errorf("toRecords(nil) = %v, want nil", got)
	}
}

func TestCellString(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"nil", nil, ""},
		{"string", "Flour", "Flour"},
		{"integerFloat", float64(10), "10"},
		{"fractionFloat", 8.5, "8.5"},
		{"bool", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cellString(tt.in); got != tt.want {
				t.Errorf("cellString(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"notFound", &googleapi.Error{Code: http.StatusNotFound}, store.ErrTableNotFound},
		{"badRange", &googleapi.Error{Code: http.StatusBadRequest, Message: "Unable to parse range: Nope"}, store.ErrTableNotFound},
		{"throttled", &googleapi.Error{Code: http.StatusTooManyRequests}, store.ErrUnavailable},
		{"network", fmt.Errorf("dial tcp: connection refused"), store.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify("Inventaire", tt.err); !errors.Is(got, tt.want) {
				t.Errorf("classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewRequiresConfiguration(t *testing.T) {
	if _, err := New(context.Background(), "", []byte("{}")); !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("New() without id error = %v, want ErrUnavailable", err)
	}
	if _, err := New(context.Background(), "sheet-id", nil); !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("New() without credentials error = %v, want ErrUnavailable", err)
	}
}
