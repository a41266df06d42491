package webcast

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"
	"golang.org/x/net/html"

	"scoreboard/internal/scoreboard/model"
	pkgerrors "scoreboard/pkg/errors"
)

// fieldSeparator is the ASCII unit separator used between record fields.
const fieldSeparator = "\x1f"

const (
	entryTime    = "time"
	entryContest = "contest"
	entryRuns    = "runs"
)

var entryPrefixes = []string{"", "./", "sample/", "./sample/", "webcast/", "./webcast/"}

// Archive is one decoded snapshot of the judge webcast.
type Archive struct {
	// Time is the contest clock in seconds.
	Time    int64
	Contest *model.Contest
	Runs    []model.Run
	// Invalid holds the runs rejected for an unknown verdict code.
	Invalid []error
}

// Decode reads a zipped webcast bundle.
func Decode(blob []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.ArchiveDecodeFailed, "open webcast zip: %v", err)
	}

	timeData, err := readEntry(zr, entryTime)
	if err != nil {
		return nil, err
	}
	contestData, err := readEntry(zr, entryContest)
	if err != nil {
		return nil, err
	}
	runsData, err := readEntry(zr, entryRuns)
	if err != nil {
		return nil, err
	}

	archive := &Archive{}
	if archive.Time, err = ParseTime(timeData); err != nil {
		return nil, err
	}
	if archive.Contest, err = ParseContest(contestData); err != nil {
		return nil, err
	}
	if archive.Runs, archive.Invalid, err = ParseRuns(runsData); err != nil {
		return nil, err
	}
	return archive, nil
}

func readEntry(zr *zip.Reader, name string) (string, error) {
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}
	for _, prefix := range entryPrefixes {
		f, ok := files[prefix+name]
		if !ok {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", pkgerrors.Wrapf(err, pkgerrors.ArchiveDecodeFailed, "open entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", pkgerrors.Wrapf(err, pkgerrors.ArchiveDecodeFailed, "read entry %s: %v", f.Name, err)
		}
		return string(data), nil
	}
	return "", pkgerrors.Newf(pkgerrors.ArchiveEntryMissing, "webcast entry %s not found", name)
}

// ParseTime parses the contest clock in seconds.
func ParseTime(data string) (int64, error) {
	t, err := strconv.ParseInt(strings.TrimSpace(data), 10, 64)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, pkgerrors.ArchiveDecodeFailed, "parse time: %v", err)
	}
	return t, nil
}

// ParseContest parses the contest header and the team list.
func ParseContest(data string) (*model.Contest, error) {
	lines := splitLines(data)
	if len(lines) < 3 {
		return nil, pkgerrors.Newf(pkgerrors.ArchiveDecodeFailed, "contest file has %d lines", len(lines))
	}

	name := lines[0]
	params, err := parseInts(lines[1], 4, "contest parameters")
	if err != nil {
		return nil, err
	}
	counts, err := parseInts(lines[2], 2, "team and problem count")
	if err != nil {
		return nil, err
	}
	teamCount, problemCount := int(counts[0]), int(counts[1])
	if teamCount < 0 || len(lines) < 3+teamCount {
		return nil, pkgerrors.Newf(pkgerrors.ArchiveDecodeFailed, "contest file declares %d teams, has %d lines", teamCount, len(lines)-3)
	}

	teams := make([]*model.Team, 0, teamCount)
	for i, line := range lines[3 : 3+teamCount] {
		fields := strings.Split(line, fieldSeparator)
		if len(fields) < 3 {
			return nil, pkgerrors.Newf(pkgerrors.ArchiveDecodeFailed, "team line %d has %d fields", i+1, len(fields))
		}
		teams = append(teams, model.NewTeam(fields[0], fields[1], html.UnescapeString(fields[2])))
	}

	maximum, current, freeze, penalty := params[0], params[1], params[2], params[3]
	return model.NewContest(name, teams, maximum, current, freeze, penalty, problemCount), nil
}

// ParseRuns parses one run per line. Runs with an unknown verdict code are
// left out and returned as invalid; any other malformed line fails the batch.
func ParseRuns(data string) ([]model.Run, []error, error) {
	var (
		runs    []model.Run
		invalid []error
	)
	for i, line := range splitLines(data) {
		fields := strings.Split(line, fieldSeparator)
		if len(fields) < 5 {
			return nil, nil, pkgerrors.Newf(pkgerrors.ArchiveDecodeFailed, "run line %d has %d fields", i+1, len(fields))
		}
		id, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, nil, pkgerrors.Wrapf(err, pkgerrors.ArchiveDecodeFailed, "run line %d: bad id: %v", i+1, err)
		}
		at, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, nil, pkgerrors.Wrapf(err, pkgerrors.ArchiveDecodeFailed, "run line %d: bad time: %v", i+1, err)
		}
		verdict, err := model.ParseVerdictCode(fields[4], at)
		if err != nil {
			invalid = append(invalid, pkgerrors.Newf(pkgerrors.InvalidVerdictCode, "run %d: invalid verdict code %q", id, fields[4]).
				WithDetail("run_id", id))
			continue
		}
		runs = append(runs, model.Run{
			ID:        id,
			Time:      at,
			TeamLogin: fields[2],
			Problem:   fields[3],
			Verdict:   verdict,
		})
	}
	return runs, invalid, nil
}

func parseInts(line string, want int, what string) ([]int64, error) {
	fields := strings.Split(line, fieldSeparator)
	if len(fields) < want {
		return nil, pkgerrors.Newf(pkgerrors.ArchiveDecodeFailed, "%s: expected %d fields, got %d", what, want, len(fields))
	}
	out := make([]int64, want)
	for i := range want {
		v, err := strconv.ParseInt(strings.TrimSpace(fields[i]), 10, 64)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, pkgerrors.ArchiveDecodeFailed, "%s: field %d: %v", what, i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

func splitLines(data string) []string {
	var lines []string
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
