package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

func TestAssessmentType_IsValid(t *testing.T) {
	tests := []struct {
		name string
		typ  types.AssessmentType
		want bool
	}{
		{
			name: "valid automated",
			typ:  types.AssessmentTypeAutomated,
			want: true,
		},
		{
			name: "valid manual",
			typ:  types.AssessmentTypeManual,
			want: true,
		},
		{
			name: "invalid type",
			typ:  types.AssessmentType("HYBRID"),
			want: false,
		},
		{
			name: "empty type",
			typ:  types.AssessmentType(""),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.want {
				gt.B(t, tt.typ.IsValid()).True()
			} else {
				gt.B(t, tt.typ.IsValid()).False()
			}
		})
	}
}

func TestParseAssessmentType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    types.AssessmentType
		wantErr bool
	}{
		{
			name:    "valid automated",
			input:   "AUTOMATED",
			want:    types.AssessmentTypeAutomated,
			wantErr: false,
		},
		{
			name:    "valid manual",
			input:   "MANUAL",
			want:    types.AssessmentTypeManual,
			wantErr: false,
		},
		{
			name:    "invalid type",
			input:   "automated",
			want:    "",
			wantErr: true,
		},
		{
			name:    "empty type",
			input:   "",
			want:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.ParseAssessmentType(tt.input)
			if tt.wantErr {
				gt.Error(t, err)
			} else {
				gt.NoError(t, err)
				gt.V(t, got).Equal(tt.want)
			}
		})
	}
}

func TestAllAssessmentTypes(t *testing.T) {
	typs := types.AllAssessmentTypes()
	gt.A(t, typs).Length(2)

	for _, typ := range typs {
		gt.B(t, typ.IsValid()).
			Describef("type %s should be valid", typ).
			True()
	}
}

func TestAssessmentType_String(t *testing.T) {
	gt.S(t, types.AssessmentTypeAutomated.String()).Equal("AUTOMATED")
	gt.S(t, types.AssessmentTypeManual.String()).Equal("MANUAL")
}
