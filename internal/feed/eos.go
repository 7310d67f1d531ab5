package feed

import (
	"encoding/json"
	"net/url"
	"strconv"
)

type eosDialect struct {
	cfg Config
}

type eosData struct {
	Message  string            `json:"message"`
	FileList []json.RawMessage `json:"file_list"`
}

func (d eosDialect) Name() string { return DialectEOS }

func (d eosDialect) Query() string {
	// Built by hand to keep the server's expected parameter order.
	return "owner=" + url.QueryEscape(d.cfg.Owner) +
		"&size=" + strconv.Itoa(d.cfg.Size) +
		"&device=" + url.QueryEscape(d.cfg.Device) +
		"&info=" + d.cfg.infoFields()
}

func (d eosDialect) URL() string { return d.cfg.endpoint() + "?" + d.Query() }

// Parse requires a top-level object carrying "result" and a "data" object.
// A successful result must also carry data.file_list.
func (d eosDialect) Parse(body []byte) (ParseResult, error) {
	members, err := decodeObject(body, DialectEOS)
	if err != nil {
		return ParseResult{}, err
	}
	var result string
	if err := decodeMember(members, "result", &result, DialectEOS); err != nil {
		return ParseResult{}, err
	}
	var data eosData
	if err := decodeMember(members, "data", &data, DialectEOS); err != nil {
		return ParseResult{}, err
	}
	if result == "failed" {
		return ParseResult{Failed: true, ServerMessage: data.Message}, nil
	}
	if data.FileList == nil {
		return ParseResult{}, malformed(DialectEOS, "update server response is missing a required field").
			WithContext("field", "data.file_list").
			Build()
	}
	builds, skipped := normalize(d.cfg, data.FileList)
	return ParseResult{Builds: builds, Skipped: skipped}, nil
}
