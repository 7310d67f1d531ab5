package feed

import (
	"encoding/json"
	"net/url"
	"strconv"
)

type legacyDialect struct {
	cfg Config
}

type legacyData struct {
	FileList []json.RawMessage `json:"file_list"`
}

func (d legacyDialect) Name() string { return DialectLegacy }

func (d legacyDialect) Query() string {
	return "start=0" +
		"&size=" + strconv.Itoa(d.cfg.Size) +
		"&device=" + url.QueryEscape(d.cfg.Device) +
		"&info=" + d.cfg.infoFields()
}

func (d legacyDialect) URL() string { return d.cfg.endpoint() + "?" + d.Query() }

// Parse accepts file_list either under "data" or at the top level. One of
// them must be present.
func (d legacyDialect) Parse(body []byte) (ParseResult, error) {
	members, err := decodeObject(body, DialectLegacy)
	if err != nil {
		return ParseResult{}, err
	}
	var list []json.RawMessage
	if raw, ok := members["data"]; ok && !isNull(raw) {
		var data legacyData
		if err := decodeMember(members, "data", &data, DialectLegacy); err != nil {
			return ParseResult{}, err
		}
		list = data.FileList
	}
	if list == nil {
		if _, ok := members["file_list"]; ok {
			if err := decodeMember(members, "file_list", &list, DialectLegacy); err != nil {
				return ParseResult{}, err
			}
		}
	}
	if list == nil {
		return ParseResult{}, malformed(DialectLegacy, "update server response is missing a required field").
			WithContext("field", "file_list").
			Build()
	}
	builds, skipped := normalize(d.cfg, list)
	return ParseResult{Builds: builds, Skipped: skipped}, nil
}
