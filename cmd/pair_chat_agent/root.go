package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pair_chat_server/internal/agent/api"
	"pair_chat_server/internal/config"
	"pair_chat_server/internal/infrastructure/logger"
	"pair_chat_server/pkg/constants"
	"pair_chat_server/pkg/util/jwt"
)

var (
	configPath string
	userId     string
	role       string
	token      string
)

var rootCmd = &cobra.Command{
	Use:           "pair_chat_agent",
	Short:         "无界面的客户端核心：以一个用户身份心跳、匹配、收发消息和礼物",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径，为空时按默认路径查找")
	rootCmd.PersistentFlags().StringVar(&userId, "user", "", "用户 ID")
	rootCmd.PersistentFlags().StringVar(&role, "role", constants.RoleClient, "角色：model 或 client")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "访问令牌，为空时用配置里的 jwt 密钥签发开发令牌")
	_ = rootCmd.MarkPersistentFlagRequired("user")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(giftsCmd)
}

// setup 加载配置、初始化控制台日志并构造接口客户端
func setup() (*config.Config, *api.Client, error) {
	if role != constants.RoleModel && role != constants.RoleClient {
		return nil, nil, fmt.Errorf("unknown role %q", role)
	}
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	config.SetConfig(conf)
	if err := logger.InitConsole(conf.LogConfig.Level); err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	tok := token
	if tok == "" {
		if conf.JWTConfig.Secret == "" {
			return nil, nil, fmt.Errorf("no --token given and jwt secret is empty")
		}
		jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry)
		if tok, err = jwt.GenerateAccessToken(userId, role); err != nil {
			return nil, nil, fmt.Errorf("issue dev token: %w", err)
		}
		zap.L().Info("使用开发令牌", zap.String("user_id", userId), zap.String("role", role))
	}
	timeout := conf.AgentConfig.CallTimeout
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return conf, api.New(conf.AgentConfig.BaseURL, tok, timeout), nil
}
