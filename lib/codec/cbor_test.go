// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
	"time"

	"github.com/bureau-foundation/bstream/lib/bstream"
	"github.com/bureau-foundation/bstream/lib/testutil"
)

type frameSummary struct {
	Name  string   `cbor:"name"`
	Ports []int    `cbor:"ports"`
	Up    bool     `cbor:"up"`
	Tags  []string `cbor:"tags,omitempty"`
}

// msgpackOf writes one value with a bstream writer.
func msgpackOf(t *testing.T, write func(w *bstream.Writer) error) []byte {
	t.Helper()
	out := bstream.NewMemoryOutput(0)
	if err := write(bstream.NewWriter(out)); err != nil {
		t.Fatalf("writing msgpack: %v", err)
	}
	return out.Bytes()
}

func TestMarshalDeterministic(t *testing.T) {
	value := map[string]any{"zeta": 1, "alpha": []any{"x", 2}, "mid": true}
	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	for range 10 {
		again, err := Marshal(value)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("deterministic encoding violated: %x != %x", first, again)
		}
	}
}

func TestFromMsgpackStruct(t *testing.T) {
	input := msgpackOf(t, func(w *bstream.Writer) error {
		steps := []func() error{
			func() error { return w.WriteMapHeader(3) },
			func() error { return w.WriteString("name") },
			func() error { return w.WriteString("relay") },
			func() error { return w.WriteString("ports") },
			func() error { return bstream.Write(w, []int{443, 8443}) },
			func() error { return w.WriteString("up") },
			func() error { return w.WriteBool(true) },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	})

	encoded, err := FromMsgpack(input)
	if err != nil {
		t.Fatalf("FromMsgpack: %v", err)
	}
	var summary frameSummary
	if err := Unmarshal(encoded, &summary); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if summary.Name != "relay" || !summary.Up || len(summary.Ports) != 2 || summary.Ports[1] != 8443 {
		t.Errorf("summary = %+v", summary)
	}

	// The transcoded form is the deterministic encoding of the same
	// data.
	direct, err := Marshal(frameSummary{Name: "relay", Ports: []int{443, 8443}, Up: true})
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireBytes(t, encoded, direct, "transcoded vs direct")
}

func TestDiagnoseTranscodedValues(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *bstream.Writer) error
		want  string
	}{
		{"integer", func(w *bstream.Writer) error { return w.WriteInt(-12) }, "-12"},
		{"string", func(w *bstream.Writer) error { return w.WriteString("two") }, `"two"`},
		{"blob", func(w *bstream.Writer) error { return w.WriteBlob([]byte{1, 2}) }, "h'0102'"},
		{"nil", func(w *bstream.Writer) error { return w.WriteNil() }, "null"},
		{"array", func(w *bstream.Writer) error { return bstream.Write(w, []int{1, 2, 3}) }, "[1, 2, 3]"},
		{"bool", func(w *bstream.Writer) error { return w.WriteBool(false) }, "false"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			encoded, err := FromMsgpack(msgpackOf(t, test.write))
			if err != nil {
				t.Fatalf("FromMsgpack: %v", err)
			}
			notation, err := Diagnose(encoded)
			if err != nil {
				t.Fatalf("Diagnose: %v", err)
			}
			if notation != test.want {
				t.Errorf("notation = %s, want %s", notation, test.want)
			}
		})
	}
}

func TestTimestampsSurviveTranscoding(t *testing.T) {
	when := time.Date(2026, 10, 17, 8, 30, 0, 123456789, time.UTC)
	input := msgpackOf(t, func(w *bstream.Writer) error { return w.WriteTime(when) })

	encoded, err := FromMsgpack(input)
	if err != nil {
		t.Fatalf("FromMsgpack: %v", err)
	}
	var decoded time.Time
	if err := Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !decoded.Equal(when) {
		t.Errorf("CBOR time = %v, want %v", decoded, when)
	}

	back, err := ToMsgpack(encoded)
	if err != nil {
		t.Fatalf("ToMsgpack: %v", err)
	}
	got, err := bstream.NewReader(bstream.NewMemoryInputBytes(back)).ReadTime()
	if err != nil {
		t.Fatalf("ReadTime: %v", err)
	}
	if !got.Equal(when) {
		t.Errorf("round trip time = %v, want %v", got, when)
	}
}

func TestToMsgpack(t *testing.T) {
	encoded, err := Marshal(map[string]any{"b": []any{"x", nil}, "a": true})
	if err != nil {
		t.Fatal(err)
	}
	data, err := ToMsgpack(encoded)
	if err != nil {
		t.Fatalf("ToMsgpack: %v", err)
	}
	want := []byte{0x82, 0xa1, 'a', 0xc3, 0xa1, 'b', 0x92, 0xa1, 'x', 0xc0}
	testutil.RequireBytes(t, data, want, "msgpack from CBOR")
}

func TestTranscodingErrors(t *testing.T) {
	if _, err := FromMsgpack([]byte{0x92, 0x01}); err == nil {
		t.Error("FromMsgpack accepted a truncated array")
	}
	if _, err := ToMsgpack([]byte{0xff, 0xfe, 0xfd}); err == nil {
		t.Error("ToMsgpack accepted invalid CBOR")
	}
	nonStringKeys, err := Marshal(map[int]string{1: "one"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ToMsgpack(nonStringKeys); err == nil {
		t.Error("ToMsgpack accepted a map with integer keys")
	}
}

func BenchmarkFromMsgpack(b *testing.B) {
	out := bstream.NewMemoryOutput(0)
	if err := bstream.Write(bstream.NewWriter(out), map[string][]int{"a": {1, 2, 3}, "b": {4, 5}}); err != nil {
		b.Fatal(err)
	}
	data := out.Bytes()
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	for b.Loop() {
		FromMsgpack(data)
	}
}
