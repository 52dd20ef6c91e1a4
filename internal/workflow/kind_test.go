package workflow

import (
	"context"
	"reflect"
	"testing"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"information_retrieval", KindInformationRetrieval, false},
		{"strategy", KindStrategy, false},
		{"STRATEGY", "", true},
		{"", "", true},
		{"billing", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSortCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   []Kind
		want []Kind
	}{
		{
			name: "reversed input restores priority order",
			in:   []Kind{KindStrategy, KindInformationRetrieval},
			want: []Kind{KindInformationRetrieval, KindStrategy},
		},
		{
			name: "already ordered",
			in:   []Kind{KindInformationRetrieval, KindStrategy},
			want: []Kind{KindInformationRetrieval, KindStrategy},
		},
		{
			name: "duplicates collapse",
			in:   []Kind{KindStrategy, KindStrategy, KindInformationRetrieval},
			want: []Kind{KindInformationRetrieval, KindStrategy},
		},
		{
			name: "single kind",
			in:   []Kind{KindStrategy},
			want: []Kind{KindStrategy},
		},
		{
			name: "non-canonical kinds append in encounter order",
			in:   []Kind{Kind("zeta"), KindStrategy, Kind("alpha")},
			want: []Kind{KindStrategy, Kind("zeta"), Kind("alpha")},
		},
		{
			name: "empty input",
			in:   nil,
			want: []Kind{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SortCanonical(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SortCanonical(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSortCanonicalDoesNotMutateInput(t *testing.T) {
	in := []Kind{KindStrategy, KindInformationRetrieval}
	SortCanonical(in)
	if in[0] != KindStrategy {
		t.Error("input slice was mutated")
	}
}

type stubExecutor struct {
	kind Kind
}

func (s stubExecutor) Kind() Kind { return s.kind }
func (s stubExecutor) Execute(ctx context.Context, req Request) (Result, error) {
	return Result{Kind: s.kind, Status: StatusSuccess}, nil
}

func TestRegistry(t *testing.T) {
	reg, err := NewRegistry(
		stubExecutor{kind: KindStrategy},
		stubExecutor{kind: KindInformationRetrieval},
	)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := reg.Lookup(KindStrategy); !ok {
		t.Error("strategy executor not found")
	}
	if _, ok := reg.Lookup(Kind("nope")); ok {
		t.Error("lookup of unregistered kind succeeded")
	}

	want := []Kind{KindInformationRetrieval, KindStrategy}
	if got := reg.Kinds(); !reflect.DeepEqual(got, want) {
		t.Errorf("Kinds() = %v, want %v", got, want)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(
		stubExecutor{kind: KindStrategy},
		stubExecutor{kind: KindStrategy},
	)
	if err == nil {
		t.Error("duplicate registration should fail")
	}
}

func TestErrorResult(t *testing.T) {
	res := ErrorResult(KindStrategy, context.DeadlineExceeded)
	if res.Status != StatusError {
		t.Errorf("Status = %v, want error", res.Status)
	}
	if len(res.Errors) != 1 || res.Errors[0] != context.DeadlineExceeded.Error() {
		t.Errorf("Errors = %v", res.Errors)
	}
}
