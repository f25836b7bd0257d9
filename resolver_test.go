package main

import (
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		payload string
		depth   int
		ctor    string
		test    string
		wantErr string
	}{
		{
			name: "bare value",
			src: `package p

//fixture:register sharedWidget
func makeWidget() Widget { return Widget{} }
`,
			payload: "Widget",
			depth:   0,
			ctor:    "New",
			test:    "TestMakeWidget",
		},
		{
			name: "value and error",
			src: `package p

//fixture:register addr
func startServer() (string, error) { return "", nil }
`,
			payload: "string",
			depth:   1,
			ctor:    "NewE",
			test:    "TestStartServer",
		},
		{
			name: "two trailing errors",
			src: `package p

//fixture:register conn
func dial() (*Conn, error, error) { return nil, nil, nil }
`,
			payload: "*Conn",
			depth:   2,
			ctor:    "NewE2",
			test:    "TestDial",
		},
		{
			name: "three trailing errors",
			src: `package p

//fixture:register conn
func dial() (*Conn, error, error, error) { return nil, nil, nil, nil }
`,
			payload: "*Conn",
			depth:   3,
			ctor:    "NewE3",
			test:    "TestDial",
		},
		{
			name: "four trailing errors exceed the maximum",
			src: `package p

//fixture:register conn
func dial() (*Conn, error, error, error, error) { return nil, nil, nil, nil, nil }
`,
			wantErr: "exceed the supported maximum of 3",
		},
		{
			name: "setup with no results",
			src: `package p

//fixture:register warmed
func warmCache() {}
`,
			depth: 0,
			ctor:  "Setup",
			test:  "TestWarmCache",
		},
		{
			name: "setup with error",
			src: `package p

//fixture:register dbReady
func setupDB() error { return nil }
`,
			depth: 1,
			ctor:  "SetupE",
			test:  "TestSetupDB",
		},
		{
			name: "named results",
			src: `package p

//fixture:register addr
func startServer() (addr string, err error) { return "", nil }
`,
			payload: "string",
			depth:   1,
			ctor:    "NewE",
			test:    "TestStartServer",
		},
		{
			name: "matching annotation pins the type argument",
			src: `package p

//fixture:register addr: string
func startServer() (string, error) { return "", nil }
`,
			payload: "string",
			depth:   1,
			ctor:    "NewE[string]",
			test:    "TestStartServer",
		},
		{
			name: "annotation mismatch",
			src: `package p

//fixture:register addr: int
func startServer() (string, error) { return "", nil }
`,
			wantErr: "declared type int does not match function result type string",
		},
		{
			name: "annotation on setup fixture",
			src: `package p

//fixture:register dbReady: *DB
func setupDB() error { return nil }
`,
			wantErr: "returns no value",
		},
		{
			name: "multiple value results",
			src: `package p

//fixture:register pair
func makePair() (A, B, error) { return A{}, B{}, nil }
`,
			wantErr: "returns 2 values; wrap them in a struct",
		},
		{
			name: "receiver rejected",
			src: `package p

//fixture:register widget
func (f *Factory) makeWidget() Widget { return Widget{} }
`,
			wantErr: "must not have a receiver",
		},
		{
			name: "parameters rejected",
			src: `package p

//fixture:register widget
func makeWidget(n int) Widget { return Widget{} }
`,
			wantErr: "must not take parameters",
		},
		{
			name: "type parameters rejected",
			src: `package p

//fixture:register widget
func makeWidget[T any]() T { var z T; return z }
`,
			wantErr: "must not have type parameters",
		},
		{
			name: "qualified payload type",
			src: `package p

import "database/sql"

//fixture:register conn: *sql.DB
func openDB() (*sql.DB, error) { return nil, nil }
`,
			payload: "*sql.DB",
			depth:   1,
			ctor:    "NewE[*sql.DB]",
			test:    "TestOpenDB",
		},
		{
			name: "qualifier without a matching import",
			src: `package p

//fixture:register conn: *sql.DB
func openDB() (*sql.DB, error) { return nil, nil }
`,
			wantErr: "cannot resolve package sql in type *sql.DB",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			decls, err := scanSource(t, tt.src)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got none", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %q", tt.wantErr, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("scanFile() error = %v", err)
			}
			if len(decls) != 1 {
				t.Fatalf("expected 1 declaration, got %d", len(decls))
			}
			got := decls[0]
			if got.Payload != tt.payload {
				t.Errorf("Payload = %q, want %q", got.Payload, tt.payload)
			}
			if got.Depth != tt.depth {
				t.Errorf("Depth = %d, want %d", got.Depth, tt.depth)
			}
			if got.Ctor != tt.ctor {
				t.Errorf("Ctor = %q, want %q", got.Ctor, tt.ctor)
			}
			if got.TestName != tt.test {
				t.Errorf("TestName = %q, want %q", got.TestName, tt.test)
			}
		})
	}
}
