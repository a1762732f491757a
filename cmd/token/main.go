// token 签发服务令牌，供调用方以 Authorization: Bearer <token> 访问 /api
//
//	token --subject dashboard --scope "invite metadata" --ttl 24h
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"craz-web-meta/config"
	"craz-web-meta/pkg/jwt"
)

func main() {
	var (
		configPath string
		subject    string
		scope      string
		ttl        time.Duration
	)
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径")
	pflag.StringVarP(&subject, "subject", "s", "", "调用方标识（必填）")
	pflag.StringVar(&scope, "scope", "", "空格分隔的权限范围")
	pflag.DurationVar(&ttl, "ttl", 0, "有效期，默认取 auth.token_ttl")
	pflag.Parse()

	if subject == "" {
		fmt.Fprintln(os.Stderr, "--subject 不能为空")
		pflag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	token, err := jwt.NewManager(&cfg.Auth).GenerateToken(subject, scope, ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "签发失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
