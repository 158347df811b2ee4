package lockwatch

import (
	"context"
	"time"

	"blockballot/lib/logger"
	a "blockballot/modules/aggregate"
	votelocksDb "blockballot/modules/db/ballot/votelocks"

	"github.com/chebyrash/promise"
	"github.com/robfig/cron/v3"
)

// ===== types =====

// lockWatcher reports vote locks that outlived their request, usually a
// crash between the ledger write and the final record. Report-only:
// a stuck lock means a voter whose ballot state needs a human decision,
// so nothing is cleared automatically.
type lockWatcher struct {
	conf  LockwatchConfig
	locks votelocksDb.VoteLocks
	log   logger.Logger
	cron  *cron.Cron
	stop  chan struct{}
}

// ===== interface assertion =====

var _ a.Plugin = &lockWatcher{}

// ===== constructor =====

func New(conf LockwatchConfig, locks votelocksDb.VoteLocks, log logger.Logger) *lockWatcher {
	return &lockWatcher{
		conf:  conf,
		locks: locks,
		log:   log,
		cron:  cron.New(),
		stop:  make(chan struct{}),
	}
}

// ===== implementing plugin interface =====

func (w *lockWatcher) Init() error {
	return nil
}

// Sweep lists locks older than the configured threshold and logs each
// one for the operator.
func (w *lockWatcher) Sweep() ([]votelocksDb.LockRecord, error) {
	threshold := time.Duration(w.conf.Get().StuckAfterMinutes) * time.Minute
	cutoff := time.Now().UTC().Add(-threshold)

	stuck, err := w.locks.ListStuck(cutoff)
	if err != nil {
		w.log.Error("stuck lock sweep failed", err)
		return nil, err
	}
	for _, record := range stuck {
		w.log.Error("stuck vote lock", record.ElectionID, record.VoterID, record.Nonce, time.Since(record.CreatedAt).Round(time.Second))
	}
	return stuck, nil
}

func (w *lockWatcher) task(ctx context.Context) {
	w.Sweep()
}

func (w *lockWatcher) Start() *promise.Promise[any] {
	return promise.New(func(resolve func(any), reject func(error)) {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-w.stop
			cancel()
		}()

		go w.task(ctx)

		_, err := w.cron.AddFunc("@every 1m", func() {
			select {
			case <-w.stop:
				return
			default:
				go w.task(ctx)
			}
		})
		if err != nil {
			reject(err)
			return
		}
		w.cron.Start()
		resolve(nil)
	})
}

func (w *lockWatcher) Stop() error {
	select {
	case <-w.stop:
	default:
		close(w.stop)
	}
	w.cron.Stop()
	return nil
}
