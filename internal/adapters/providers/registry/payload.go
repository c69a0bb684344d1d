package registry

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/medivisit/hospitalfinder/internal/domain/entities"
	"github.com/medivisit/hospitalfinder/pkg/config"
)

// noDataResultCode is returned by some registry services for an empty page.
const noDataResultCode = "03"

type hospitalItem struct {
	XPos     flexString `xml:"XPos" json:"XPos"`
	YPos     flexString `xml:"YPos" json:"YPos"`
	Distance flexString `xml:"distance" json:"distance"`
	ClCd     flexString `xml:"clCd" json:"clCd"`
	Telno    flexString `xml:"telno" json:"telno"`
	YadmNm   flexString `xml:"yadmNm" json:"yadmNm"`
	Ykiho    flexString `xml:"ykiho" json:"ykiho"`
}

type departmentItem struct {
	DgsbjtCd   flexString `xml:"dgsbjtCd" json:"dgsbjtCd"`
	DgsbjtCdNm flexString `xml:"dgsbjtCdNm" json:"dgsbjtCdNm"`
}

type registryHeader struct {
	ResultCode flexString `xml:"resultCode" json:"resultCode"`
	ResultMsg  flexString `xml:"resultMsg" json:"resultMsg"`
}

// serviceFault is the gateway-level error document the registry returns
// (always as XML) for key or quota problems.
type serviceFault struct {
	ErrMsg           string `xml:"errMsg"`
	ReturnAuthMsg    string `xml:"returnAuthMsg"`
	ReturnReasonCode string `xml:"returnReasonCode"`
}

type xmlEnvelope[T any] struct {
	XMLName xml.Name
	Header  registryHeader `xml:"header"`
	Items   []T            `xml:"body>items>item"`
	Fault   *serviceFault  `xml:"cmmMsgHeader"`
}

// jsonEnvelope keeps the body raw: on errors the registry sends "body":"",
// which must not stop the header from being read.
type jsonEnvelope struct {
	Response struct {
		Header registryHeader  `json:"header"`
		Body   json.RawMessage `json:"body"`
	} `json:"response"`
}

type jsonBody[T any] struct {
	Items jsonItems[T] `json:"items"`
}

// payload is a decoded registry response with the list already in tagged form.
type payload[T any] struct {
	Header registryHeader
	Fault  *serviceFault
	Items  OneOrMany[T]
}

// decodePayload sniffs the body so XML fault documents are understood even when
// JSON was requested; format only breaks ties for bodies that start with neither.
func decodePayload[T any](format string, body []byte) (payload[T], error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return payload[T]{}, fmt.Errorf("empty registry response")
	}

	useXML := format != config.RegistryFormatJSON
	switch trimmed[0] {
	case '<':
		useXML = true
	case '{':
		useXML = false
	}

	if useXML {
		var env xmlEnvelope[T]
		if err := xml.Unmarshal(trimmed, &env); err != nil {
			return payload[T]{}, fmt.Errorf("failed to decode registry XML: %w", err)
		}
		return payload[T]{Header: env.Header, Fault: env.Fault, Items: fromSlice(env.Items)}, nil
	}

	var env jsonEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return payload[T]{}, fmt.Errorf("failed to decode registry JSON: %w", err)
	}
	p := payload[T]{Header: env.Response.Header}
	if p.upstreamError() != nil || isEmptyJSONBody(env.Response.Body) {
		return p, nil
	}

	var b jsonBody[T]
	if err := json.Unmarshal(env.Response.Body, &b); err != nil {
		return payload[T]{}, fmt.Errorf("failed to decode registry JSON body: %w", err)
	}
	p.Items = b.Items.Item
	return p, nil
}

func isEmptyJSONBody(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", `""`:
		return true
	}
	return false
}

// upstreamError reports a rejection the registry signalled inside a 200 response.
func (p payload[T]) upstreamError() error {
	if p.Fault != nil {
		reason := strings.TrimSpace(p.Fault.ReturnAuthMsg)
		if reason == "" {
			reason = strings.TrimSpace(p.Fault.ErrMsg)
		}
		return fmt.Errorf("registry service fault %s: %s", strings.TrimSpace(p.Fault.ReturnReasonCode), reason)
	}
	code := strings.TrimSpace(string(p.Header.ResultCode))
	if isNormalResultCode(code) {
		return nil
	}
	return fmt.Errorf("registry result code %s: %s", code, strings.TrimSpace(string(p.Header.ResultMsg)))
}

func isNormalResultCode(code string) bool {
	code = strings.TrimPrefix(code, "INFO-")
	return code == "" || code == noDataResultCode || strings.Trim(code, "0") == ""
}

func (item hospitalItem) toSummary() entities.HospitalSummary {
	return entities.HospitalSummary{
		Longitude:        parseOptionalFloat(item.XPos),
		Latitude:         parseOptionalFloat(item.YPos),
		Distance:         parseOptionalFloat(item.Distance),
		FacilityTypeCode: optionalString(item.ClCd),
		PhoneNumber:      strings.TrimSpace(string(item.Telno)),
		Name:             strings.TrimSpace(string(item.YadmNm)),
		FacilityID:       strings.TrimSpace(string(item.Ykiho)),
	}
}

func toSummaries(items []hospitalItem) []entities.HospitalSummary {
	out := make([]entities.HospitalSummary, 0, len(items))
	for _, item := range items {
		out = append(out, item.toSummary())
	}
	return out
}

func toDepartmentCodes(items []departmentItem) entities.DepartmentCodeSet {
	out := make(entities.DepartmentCodeSet, 0, len(items))
	for _, item := range items {
		code := strings.TrimSpace(string(item.DgsbjtCd))
		if code == "" {
			continue
		}
		out = append(out, code)
	}
	return out
}

func parseOptionalFloat(v flexString) *float64 {
	s := strings.TrimSpace(string(v))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func optionalString(v flexString) *string {
	s := strings.TrimSpace(string(v))
	if s == "" {
		return nil
	}
	return &s
}
