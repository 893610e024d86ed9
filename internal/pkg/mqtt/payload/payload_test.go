package payload

import "testing"

func TestDecodeStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{`{"status": "online"}`, "online", false},
		{`offline`, "offline", false},
		{``, "", false},
		{`{"status": `, "", true},
	}

	for _, tt := range tests {
		got, err := DecodeStatus([]byte(tt.in))
		if (err != nil) != tt.wantErr || got.Status != tt.want {
			t.Errorf("DecodeStatus(%q) = %q, %v", tt.in, got.Status, err)
		}
	}
}
