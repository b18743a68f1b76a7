package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectRowLookupArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"examshelf"},
			want: []string{"examshelf"},
		},
		{
			name: "direct row id first token",
			in:   []string{"examshelf", "row-abc123"},
			want: []string{"examshelf", "rows", "show", "row-abc123"},
		},
		{
			name: "direct row id after value flag",
			in:   []string{"examshelf", "--dir", "./tmp-test-ws", "row-abc123"},
			want: []string{"examshelf", "--dir", "./tmp-test-ws", "rows", "show", "row-abc123"},
		},
		{
			name: "direct row id after equals flag",
			in:   []string{"examshelf", "--dir=./tmp-test-ws", "row-abc123"},
			want: []string{"examshelf", "--dir=./tmp-test-ws", "rows", "show", "row-abc123"},
		},
		{
			name: "direct row id after bool flag",
			in:   []string{"examshelf", "--pretty", "row-abc123"},
			want: []string{"examshelf", "--pretty", "rows", "show", "row-abc123"},
		},
		{
			name: "direct row id after double dash",
			in:   []string{"examshelf", "--dir", "./tmp-test-ws", "--", "row-abc123"},
			want: []string{"examshelf", "--dir", "./tmp-test-ws", "--", "rows", "show", "row-abc123"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"examshelf", "rows", "show", "row-abc123"},
			want: []string{"examshelf", "rows", "show", "row-abc123"},
		},
		{
			name: "unknown command not rewritten",
			in:   []string{"examshelf", "wat"},
			want: []string{"examshelf", "wat"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectRowLookupArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewrite(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
