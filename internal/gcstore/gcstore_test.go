package gcstore

import "testing"

func TestParseURI(t *testing.T) {
	bucket, object, err := ParseURI("gs://my-bucket/statements/u1/up1/jan.csv")
	if err != nil {
		t.Fatalf("ParseURI: %v", err)
	}
	if bucket != "my-bucket" || object != "statements/u1/up1/jan.csv" {
		t.Errorf("got %q, %q", bucket, object)
	}

	for _, bad := range []string{"", "http://x/y", "gs://only-bucket", "gs:///no-bucket"} {
		if _, _, err := ParseURI(bad); err == nil {
			t.Errorf("ParseURI(%q) should fail", bad)
		}
	}
}

func TestStatementObject(t *testing.T) {
	got := StatementObject("u1", "up1", "jan.csv")
	if got != "statements/u1/up1/jan.csv" {
		t.Errorf("got %q", got)
	}

	// Path components in the filename are stripped.
	got = StatementObject("u1", "up1", "../../etc/passwd")
	if got != "statements/u1/up1/passwd" {
		t.Errorf("got %q, want path-stripped name", got)
	}
}
