package indices

import (
	cron "github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

var (
	// NightlySyncSpec runs the full resync at 23:00 every day
	NightlySyncSpec = "0 0 23 * * ?"
	// RecoverySpec replays unsynced events every ten minutes
	RecoverySpec = "0 */10 * * * ?"
)

func StartCron() (*cron.Cron, error) {
	crontab := cron.New(cron.WithSeconds())
	if _, err := crontab.AddFunc(NightlySyncSpec, func() {
		if err := IndicesFullSyncFunc(); err != nil {
			logrus.Errorf("nightly indices sync: %v", err)
		}
	}); err != nil {
		return nil, err
	}
	if _, err := crontab.AddFunc(RecoverySpec, func() {
		recovered, err := RecoverUnsyncedEventsFunc()
		if err != nil {
			logrus.Errorf("recover unsynced events: %v", err)
			return
		}
		if recovered > 0 {
			logrus.Infof("recover unsynced events: %d events indexed", recovered)
		}
	}); err != nil {
		return nil, err
	}
	crontab.Start()
	return crontab, nil
}
