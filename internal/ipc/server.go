package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"
	"time"

	"attune/internal/daemon"
	"attune/internal/logging"
	"attune/internal/logs"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Attune", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun attune stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.SchedulerStatus = string(status.SchedulerStatus)
	resp.Initialized = status.Initialized
	resp.DeliveredToday = status.DeliveredToday
	resp.ScheduledCount = status.ScheduledCount
	resp.Tasks = append(resp.Tasks, status.Tasks...)
	resp.DBPath = status.DBPath
	resp.LockPath = status.LockFilePath
	resp.PID = os.Getpid()
	return nil
}

func (s *service) ScheduledList(_ ScheduledListRequest, resp *ScheduledListResponse) error {
	items, err := s.daemon.ScheduledNudges(s.ctx)
	if err != nil {
		return err
	}
	resp.Items = make([]ScheduledNudge, 0, len(items))
	for _, item := range items {
		resp.Items = append(resp.Items, ScheduledNudge{
			NotificationID: item.NotificationID,
			TemplateID:     item.TemplateID,
			Trigger:        item.Trigger,
			ScheduledAt:    item.ScheduledAt,
			CreatedAt:      item.CreatedAt,
		})
	}
	return nil
}

func (s *service) ScheduleWindow(req ScheduleWindowRequest, resp *ScheduleWindowResponse) error {
	s.log().Debug("window schedule requested", logging.String(logging.FieldWindow, req.Window))
	scheduled, err := s.daemon.ScheduleWindow(s.ctx, req.Window)
	if err != nil {
		return err
	}
	resp.Scheduled = scheduled
	if scheduled {
		resp.Message = "nudge scheduled"
	} else {
		resp.Message = "nothing scheduled"
	}
	return nil
}

func (s *service) ShowNudge(_ ShowNudgeRequest, resp *ShowNudgeResponse) error {
	s.log().Debug("immediate delivery requested")
	delivered, err := s.daemon.ShowUnlockNudge(s.ctx)
	if err != nil {
		return err
	}
	resp.Delivered = delivered
	if delivered {
		resp.Message = "nudge delivered"
	} else {
		resp.Message = "delivery withheld"
	}
	return nil
}

func (s *service) Respond(req RespondRequest, resp *RespondResponse) error {
	if req.NotificationID <= 0 {
		return fmt.Errorf("invalid notification id %d", req.NotificationID)
	}
	if err := s.daemon.HandleResponse(s.ctx, req.NotificationID, req.Payload); err != nil {
		return err
	}
	resp.Handled = true
	return nil
}

func (s *service) ReserveRange(req ReserveRangeRequest, resp *ReserveRangeResponse) error {
	if strings.TrimSpace(req.Owner) == "" {
		return errors.New("reserve range requires an owner")
	}
	if err := s.daemon.RegisterReservedRange(s.ctx, req.Start, req.End, req.Owner); err != nil {
		return err
	}
	resp.Registered = true
	s.log().Info("reserved range registered via IPC",
		logging.String(logging.FieldEventType, "reserved_range_registered"),
		logging.String("owner", req.Owner))
	return nil
}

func (s *service) Analytics(_ AnalyticsRequest, resp *AnalyticsResponse) error {
	counters, err := s.daemon.Analytics(s.ctx)
	if err != nil {
		return err
	}
	resp.Counters = counters
	return nil
}

func (s *service) DatabaseHealth(_ DatabaseHealthRequest, resp *DatabaseHealthResponse) error {
	health, err := s.daemon.DatabaseHealth(s.ctx)
	if err != nil && health.Error == "" {
		return err
	}
	resp.DBPath = health.DBPath
	resp.DatabaseExists = health.DatabaseExists
	resp.DatabaseReadable = health.DatabaseReadable
	resp.TablesPresent = append(resp.TablesPresent, health.TablesPresent...)
	resp.MissingTables = append(resp.MissingTables, health.MissingTables...)
	resp.IntegrityCheck = health.IntegrityCheck
	resp.ScheduledCount = health.ScheduledCount
	resp.RecordCount = health.RecordCount
	resp.Error = health.Error
	if err != nil {
		return err
	}
	return nil
}

func (s *service) OpenSettings(_ OpenSettingsRequest, resp *OpenSettingsResponse) error {
	guidance, err := s.daemon.OpenNotificationSettings(s.ctx)
	if err != nil {
		return err
	}
	resp.Guidance = guidance
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	wait := time.Duration(req.WaitSeconds) * time.Second
	if req.Follow && wait <= 0 {
		wait = time.Second
	}

	ctx := s.ctx
	if req.Follow {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait+500*time.Millisecond)
		defer cancel()
	}

	result, err := logs.Tail(ctx, s.daemon.LogPath(), logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}
