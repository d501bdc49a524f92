package queue

import "testing"

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr bool
	}{
		{"created to transcribing", StatusCreated, StatusTranscribing, false},
		{"transcribing to transcribed", StatusTranscribing, StatusTranscribed, false},
		{"transcribed to detecting", StatusTranscribed, StatusDetecting, false},
		{"detecting to duplicates found", StatusDetecting, StatusDuplicatesFound, false},
		{"duplicates found to reviewing", StatusDuplicatesFound, StatusReviewing, false},
		{"reviewing to confirmed", StatusReviewing, StatusConfirmed, false},
		{"confirmed back to reviewing", StatusConfirmed, StatusReviewing, false},
		{"confirmed to reconstructing", StatusConfirmed, StatusReconstructing, false},
		{"reconstructing to completed", StatusReconstructing, StatusCompleted, false},
		{"failed to created", StatusFailed, StatusCreated, false},
		{"same status", StatusReviewing, StatusReviewing, false},
		{"transcribing to failed", StatusTranscribing, StatusFailed, false},
		{"detecting to failed", StatusDetecting, StatusFailed, false},
		{"reconstructing to failed", StatusReconstructing, StatusFailed, false},
		{"skip transcription", StatusCreated, StatusTranscribed, true},
		{"backwards", StatusTranscribed, StatusTranscribing, true},
		{"reviewing to failed", StatusReviewing, StatusFailed, true},
		{"completed to anything", StatusCompleted, StatusReviewing, true},
		{"created straight to completed", StatusCreated, StatusCompleted, true},
		{"unknown from", Status("bogus"), StatusCreated, true},
		{"unknown to", StatusCreated, Status("bogus"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTransition(%s, %s) error = %v, wantErr %v", tt.from, tt.to, err, tt.wantErr)
			}
		})
	}
}

func TestStageStartStatus(t *testing.T) {
	tests := []struct {
		processing Status
		want       Status
		ok         bool
	}{
		{StatusTranscribing, StatusCreated, true},
		{StatusDetecting, StatusTranscribed, true},
		{StatusReconstructing, StatusConfirmed, true},
		{StatusReviewing, "", false},
	}
	for _, tt := range tests {
		got, ok := StageStartStatus(tt.processing)
		if ok != tt.ok || got != tt.want {
			t.Errorf("StageStartStatus(%s) = %s, %v; want %s, %v", tt.processing, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := ParseStatus(" Detecting_Duplicates "); !ok || status != StatusDetecting {
		t.Errorf("ParseStatus normalized = %s, %v", status, ok)
	}
	if _, ok := ParseStatus("ripping"); ok {
		t.Error("expected unknown status to be rejected")
	}
	if _, ok := ParseStatus(""); ok {
		t.Error("expected empty status to be rejected")
	}
}
