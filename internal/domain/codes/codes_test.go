package codes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLanguage(t *testing.T) {
	assert.Equal(t, LangEnglish, NormalizeLanguage("en-US"))
	assert.Equal(t, LangEnglish, NormalizeLanguage(" EN "))
	assert.Equal(t, LangKorean, NormalizeLanguage("ko-KR"))
	assert.Equal(t, LangKorean, NormalizeLanguage(""))
	assert.Equal(t, LangKorean, NormalizeLanguage("ja"))
}

func TestFacilityTypeLabel(t *testing.T) {
	assert.Equal(t, "General hospital", FacilityTypeLabel("11", "en"))
	assert.Equal(t, "약국", FacilityTypeLabel("81", "ko"))
	assert.Equal(t, "99", FacilityTypeLabel("99", "en"))
}

func TestDepartmentLabels_KeepsOrderAndDuplicates(t *testing.T) {
	got := DepartmentLabels([]string{"04", "01", "04", "zz"}, "en")
	assert.Equal(t, []string{"General surgery", "Internal medicine", "General surgery", "zz"}, got)
	assert.Empty(t, DepartmentLabels(nil, "ko"))
}
