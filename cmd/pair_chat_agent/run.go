package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pair_chat_server/internal/agent"
	"pair_chat_server/internal/agent/conversation"
	"pair_chat_server/internal/agent/media"
	"pair_chat_server/internal/agent/session"
)

var autoStart bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "以当前用户身份在线并自动匹配，Ctrl+C 退出",
	RunE:  runAgent,
}

func init() {
	runCmd.Flags().BoolVar(&autoStart, "start", true, "启动后立即开始匹配")
}

func runAgent(cmd *cobra.Command, _ []string) error {
	conf, client, err := setup()
	if err != nil {
		return err
	}
	defer zap.L().Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core := agent.New(conf.AgentConfig, client, media.NewLoopback(), clockwork.NewRealClock(), agent.Options{
		UserId:      userId,
		Role:        role,
		TokenSecret: []byte(conf.GiftConfig.TokenSecret),
		OnIncoming: func(room string, in []conversation.Incoming) {
			for _, m := range in {
				zap.L().Info("新消息", zap.String("room", room), zap.String("from", m.Message.SenderId),
					zap.String("type", m.Message.Type), zap.String("body", m.Message.Body))
			}
		},
	})
	core.OnSessionChange(func(s session.Snapshot) {
		fields := []zap.Field{
			zap.String("state", string(s.State)),
			zap.String("session_id", s.SessionId),
			zap.String("partner_id", s.PartnerId),
		}
		if s.Reason != "" {
			fields = append(fields, zap.String("reason", string(s.Reason)))
		}
		if s.LastReport != nil {
			fields = append(fields, zap.Bool("duration_reported", s.LastReport.Success))
		}
		zap.L().Info("会话", fields...)
	})
	if err := core.Start(); err != nil {
		return err
	}
	if autoStart {
		if res := core.StartSession(ctx); !res.Success {
			zap.L().Warn("开始匹配失败", zap.String("error_kind", res.ErrorKind), zap.String("message", res.Message))
		}
	}

	<-ctx.Done()
	zap.L().Info("收到退出信号，结束会话")
	// 进行中的会话在 Close 里结束并上报时长，不能沿用已取消的 ctx
	core.Close(context.Background())
	return nil
}
