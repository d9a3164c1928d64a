package nanitws

import (
	"encoding/json"
	"strings"
	"time"
)

// BirthdayPayload is the wire shape of a birthday notification.
type BirthdayPayload struct {
	Name  string `json:"name"`
	DOB   int64  `json:"dob"`
	Theme string `json:"theme"`
}

// BirthdayRecord is the decoded domain record.
type BirthdayRecord struct {
	Name      string
	BirthDate Date
	Theme     Theme
}

// wirePayload detects missing and null fields, which the plain payload cannot.
type wirePayload struct {
	Name  *string `json:"name"`
	DOB   *int64  `json:"dob"`
	Theme *string `json:"theme"`
}

// Codec decodes text frames. The zero value converts dates in time.Local.
type Codec struct {
	// Location overrides the zone used to derive BirthDate from dob.
	Location *time.Location
}

func NewCodec(loc *time.Location) Codec {
	return Codec{Location: loc}
}

// Decode parses raw into a payload. Unknown fields are ignored; missing fields, nulls and
// type mismatches yield a *DecodeError.
func (c Codec) Decode(raw string) (BirthdayPayload, error) {
	var w wirePayload
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return BirthdayPayload{}, newDecodeError(err.Error(), err)
	}

	var missing []string
	if w.Name == nil {
		missing = append(missing, "name")
	}
	if w.DOB == nil {
		missing = append(missing, "dob")
	}
	if w.Theme == nil {
		missing = append(missing, "theme")
	}
	if len(missing) > 0 {
		return BirthdayPayload{}, newDecodeError(
			"missing required fields: "+strings.Join(missing, ", "),
			nil,
		)
	}

	return BirthdayPayload{Name: *w.Name, DOB: *w.DOB, Theme: *w.Theme}, nil
}

// ToRecord converts the wire payload into a BirthdayRecord. The zone is resolved now,
// so a change of time.Local affects later decodes only.
func (c Codec) ToRecord(p BirthdayPayload) BirthdayRecord {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return BirthdayRecord{
		Name:      p.Name,
		BirthDate: DateFromEpochMillis(p.DOB, loc),
		Theme:     ParseTheme(p.Theme),
	}
}

func (c Codec) DecodeRecord(raw string) (BirthdayRecord, error) {
	p, err := c.Decode(raw)
	if err != nil {
		return BirthdayRecord{}, err
	}
	return c.ToRecord(p), nil
}
