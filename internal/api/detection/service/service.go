package detectionService

import (
	"DebrisDetector/internal/entity"
	"DebrisDetector/pkg/detector"
	"DebrisDetector/pkg/utils"
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultTimeout = 60 * time.Second

// IDetectionService is the upload-and-inference workflow controller.
type IDetectionService interface {
	SelectFile(name string, data []byte)
	Submit(ctx context.Context) error
	Reset()
	State() entity.State
	Subscribe() (<-chan entity.State, func())
	Wait()
}

type detectionService struct {
	log      *logrus.Logger
	detector detector.IDetector
	utils    utils.IUtils
	timeout  time.Duration

	mu          sync.Mutex
	state       entity.State
	seq         uint64
	subscribers map[int]chan entity.State
	nextSubID   int

	inFlight sync.WaitGroup
}

func NewDetectionService(
	log *logrus.Logger,
	detector detector.IDetector,
	utils utils.IUtils,
	timeout time.Duration,
) IDetectionService {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &detectionService{
		log:         log,
		detector:    detector,
		utils:       utils,
		timeout:     timeout,
		state:       entity.Idle{},
		subscribers: make(map[int]chan entity.State),
	}
}
