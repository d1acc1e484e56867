package idgen

import (
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
	"github.com/sony/sonyflake"
)

// NewIdWorker falls back to a fixed machine id when no private address can be found,
// which is the usual case inside test sandboxes.
func NewIdWorker() *sonyflake.Sonyflake {
	worker := sonyflake.NewSonyflake(sonyflake.Settings{})
	if worker != nil {
		return worker
	}
	logrus.Warn("no private ip address found for sonyflake, fall back to machine id 1")
	return sonyflake.NewSonyflake(sonyflake.Settings{
		StartTime: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		MachineID: func() (uint16, error) { return 1, nil },
	})
}

func NextID(idWorker *sonyflake.Sonyflake) types.ID {
	id, err := idWorker.NextID()
	if err != nil {
		panic(err)
	}
	return types.ID(id)
}
