package app

import (
	"log/slog"

	"github.com/treykane/cli-rank/internal/logging"
)

// appLog writes to CLI_RANK_LOG_FILE when set and to stderr otherwise, so
// log lines never land on the alternate screen.
var appLog = logging.New("app")

// setStatusError shows status in the footer and logs err with attrs. Only
// status reaches the user; the error detail stays in the log.
//
//	m.setStatusError("Could not load ranking", err, "ranking", m.opts.RankingID)
func (m *Model) setStatusError(status string, err error, attrs ...any) {
	m.status = status
	appLog.Error(status, append([]any{slog.Any("error", err)}, attrs...)...)
}
