package pcap

import "testing"

func TestFilterErrMessages(t *testing.T) {
	compile := &FilterErr{}
	if compile.Error() == "" {
		t.Fatalf("expected non-empty message for compile failure")
	}

	apply := &FilterErr{CouldNotApply: true}
	if apply.Error() == compile.Error() {
		t.Fatalf("compile and apply failures should report distinct messages")
	}
}

func TestModeConstantsDistinct(t *testing.T) {
	if NonPromisc == Promisc {
		t.Fatalf("NonPromisc and Promisc must be distinct values")
	}
}

func TestCaptureErrorKindsDistinct(t *testing.T) {
	kinds := []error{
		ErrLinkLayer,
		ErrCouldNotCapture,
		ErrCouldNotReadSelectableFd,
		ErrCouldNotCaptureAfterFdReady,
	}
	for i, a := range kinds {
		for _, b := range kinds[i+1:] {
			if a == b || a.Error() == b.Error() {
				t.Fatalf("capture error kinds must be distinguishable: %v vs %v", a, b)
			}
		}
	}
}
