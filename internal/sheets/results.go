package sheets

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/PoluyanbIch/stemnavigator/internal/service"
)

// Results appends finished attempts to a worksheet, one row per attempt:
//
//	user_id | username | first_name | attempt_id | completed_at | scale | score | ...
//
// with up to service.TopScales scale/score pairs.
type Results struct {
	client        *Client
	spreadsheetID string
	worksheet     string
}

var _ service.ResultStore = (*Results)(nil)

func NewResults(client *Client, spreadsheetID, worksheet string) *Results {
	return &Results{client: client, spreadsheetID: spreadsheetID, worksheet: worksheet}
}

func (r *Results) Save(ctx context.Context, result service.TestResult) error {
	row := []interface{}{
		strconv.FormatInt(result.UserID, 10),
		result.Username,
		result.FirstName,
		result.AttemptID,
		result.CompletedAt.UTC().Format(time.RFC3339),
	}
	for _, sc := range result.Scores {
		row = append(row, string(sc.Scale), sc.Score)
	}
	return r.client.appendRows(ctx, r.spreadsheetID, sheetRange(r.worksheet, "A1"), [][]interface{}{row})
}

// Latest scans the log and returns the last row written for userID.
func (r *Results) Latest(ctx context.Context, userID int64) (*service.TestResult, error) {
	rows, err := r.client.get(ctx, r.spreadsheetID, sheetRange(r.worksheet, "A:K"))
	if err != nil {
		return nil, err
	}

	id := strconv.FormatInt(userID, 10)
	var latest *service.TestResult
	for _, row := range rows {
		if len(row) < 5 || strings.TrimSpace(cell(row[0])) != id {
			continue
		}
		res := parseResultRow(userID, row)
		latest = &res
	}
	return latest, nil
}

func parseResultRow(userID int64, row []interface{}) service.TestResult {
	res := service.TestResult{
		UserID:    userID,
		Username:  cell(row[1]),
		FirstName: cell(row[2]),
		AttemptID: cell(row[3]),
	}
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(cell(row[4]))); err == nil {
		res.CompletedAt = t
	}
	for i := 5; i+1 < len(row); i += 2 {
		scale := service.ScaleID(strings.TrimSpace(cell(row[i])))
		score, err := strconv.Atoi(strings.TrimSpace(cell(row[i+1])))
		if scale == "" || err != nil {
			continue
		}
		res.Scores = append(res.Scores, service.ScaleScore{Scale: scale, Score: score})
	}
	return res
}
