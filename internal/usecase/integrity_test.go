package usecase

import "testing"

func TestParseDeletePolicy(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    DeletePolicy
		wantErr bool
	}{
		{name: "cascade", in: "cascade", want: DeleteCascade},
		{name: "detach", in: "detach", want: DeleteDetach},
		{name: "unknown", in: "orphan", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDeletePolicy(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
