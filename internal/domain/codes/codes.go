// Package codes resolves registry classification codes to display labels.
package codes

import "strings"

// Supported display languages.
const (
	LangKorean  = "ko"
	LangEnglish = "en"
)

type label struct {
	ko string
	en string
}

// facilityTypes maps the registry clCd classification.
var facilityTypes = map[string]label{
	"01": {"상급종합병원", "Tertiary general hospital"},
	"11": {"종합병원", "General hospital"},
	"21": {"병원", "Hospital"},
	"28": {"요양병원", "Long-term care hospital"},
	"29": {"정신병원", "Psychiatric hospital"},
	"31": {"의원", "Clinic"},
	"41": {"치과병원", "Dental hospital"},
	"51": {"치과의원", "Dental clinic"},
	"61": {"조산원", "Midwifery clinic"},
	"71": {"보건소", "Public health center"},
	"72": {"보건지소", "Public health branch"},
	"73": {"보건진료소", "Primary health post"},
	"75": {"보건의료원", "Public health hospital"},
	"81": {"약국", "Pharmacy"},
	"92": {"한방병원", "Korean medicine hospital"},
	"93": {"한의원", "Korean medicine clinic"},
}

// departments maps the registry dgsbjtCd department codes.
var departments = map[string]label{
	"00": {"일반의", "General practice"},
	"01": {"내과", "Internal medicine"},
	"02": {"신경과", "Neurology"},
	"03": {"정신건강의학과", "Psychiatry"},
	"04": {"외과", "General surgery"},
	"05": {"정형외과", "Orthopedics"},
	"06": {"신경외과", "Neurosurgery"},
	"07": {"흉부외과", "Thoracic surgery"},
	"08": {"성형외과", "Plastic surgery"},
	"09": {"마취통증의학과", "Anesthesiology"},
	"10": {"산부인과", "Obstetrics and gynecology"},
	"11": {"소아청소년과", "Pediatrics"},
	"12": {"안과", "Ophthalmology"},
	"13": {"이비인후과", "Otorhinolaryngology"},
	"14": {"피부과", "Dermatology"},
	"15": {"비뇨의학과", "Urology"},
	"16": {"영상의학과", "Radiology"},
	"17": {"방사선종양학과", "Radiation oncology"},
	"18": {"병리과", "Pathology"},
	"19": {"진단검사의학과", "Laboratory medicine"},
	"20": {"결핵과", "Tuberculosis"},
	"21": {"재활의학과", "Rehabilitation medicine"},
	"22": {"핵의학과", "Nuclear medicine"},
	"23": {"가정의학과", "Family medicine"},
	"24": {"응급의학과", "Emergency medicine"},
	"25": {"직업환경의학과", "Occupational medicine"},
	"26": {"예방의학과", "Preventive medicine"},
	"49": {"치과", "Dentistry"},
	"80": {"한방내과", "Korean internal medicine"},
}

// NormalizeLanguage maps a locale such as "en-US" onto a supported language.
// Anything unrecognised falls back to Korean, the registry's own language.
func NormalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if strings.HasPrefix(lang, LangEnglish) {
		return LangEnglish
	}
	return LangKorean
}

// FacilityTypeLabel returns the label for a clCd value, or the code itself if unknown.
func FacilityTypeLabel(code, lang string) string {
	return lookup(facilityTypes, code, lang)
}

// DepartmentLabel returns the label for a dgsbjtCd value, or the code itself if unknown.
func DepartmentLabel(code, lang string) string {
	return lookup(departments, code, lang)
}

// DepartmentLabels resolves every code, preserving order and duplicates.
func DepartmentLabels(codes []string, lang string) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		out = append(out, DepartmentLabel(code, lang))
	}
	return out
}

func lookup(table map[string]label, code, lang string) string {
	code = strings.TrimSpace(code)
	l, ok := table[code]
	if !ok {
		return code
	}
	if NormalizeLanguage(lang) == LangEnglish {
		return l.en
	}
	return l.ko
}
