package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gridpack/internal/builder"
	"gridpack/internal/config"
	"gridpack/internal/server"
	"gridpack/internal/util"
)

var (
	port    = flag.Int("port", 0, "服务端口 (仅 serve 子命令，覆盖配置文件)")
	devMode = flag.Bool("dev", false, "开发模式 (仅 serve 子命令)")
)

func usage() {
	fmt.Fprintf(os.Stderr, `用法:
  gridpack init                            在当前目录生成默认配置文件
  gridpack blueprint <蓝图名>              从蓝图展开数据包
  gridpack scenario <数据包名> <场景名>     克隆数据包并叠加场景数据
  gridpack serve                           启动本地构建服务
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("加载配置失败，使用默认配置: %v", err)
		cfg = config.DefaultConfig()
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case "init":
		runInit()
	case "blueprint":
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		runBlueprint(cfg, args[1])
	case "scenario":
		if len(args) != 3 {
			usage()
			os.Exit(2)
		}
		runScenario(cfg, args[1], args[2])
	case "serve":
		runServe(cfg)
	default:
		usage()
		os.Exit(2)
	}
}

// runInit 写出默认配置文件，便于按需修改目录布局
func runInit() {
	if err := config.SaveConfig(config.DefaultConfig()); err != nil {
		log.Fatalf("写入 config.toml 失败: %v", err)
	}
	fmt.Println("已生成 config.toml")
}

// runBlueprint 展开蓝图并落盘
func runBlueprint(cfg *config.AppConfig, name string) {
	b := builder.New(cfg)
	pkg, err := b.BuildBlueprint(name)
	if err != nil {
		log.Fatalf("构建蓝图 %q 失败: %v", name, err)
	}
	fmt.Printf("数据包已生成: %s (%d 个资源)\n", pkg.Name, len(pkg.Resources))
}

// runScenario 构建场景数据包
func runScenario(cfg *config.AppConfig, base, scenario string) {
	b := builder.New(cfg)
	pkg, err := b.BuildScenario(base, scenario)
	if err != nil {
		log.Fatalf("构建场景 %q 失败: %v", scenario, err)
	}
	fmt.Printf("数据包已生成: %s (%d 个资源)\n", pkg.Name, len(pkg.Resources))
}

// runServe 启动本地 HTTP 构建服务
func runServe(cfg *config.AppConfig) {
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}

	fmt.Println("==========================================")
	fmt.Println("  Gridpack - 能源系统数据包构建工具")
	fmt.Println("==========================================")

	srv := server.NewServer(cfg)
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

	go func() {
		fmt.Printf("服务启动中，监听端口 %d ...\n", cfg.Server.Port)
		if err := srv.Run(addr); err != nil {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	if !cfg.Server.DevMode {
		if err := util.OpenBrowserWithFallback(url); err != nil {
			fmt.Printf("无法自动打开浏览器，请手动访问: %s\n", url)
		}
	} else {
		fmt.Printf("开发模式: 请访问 %s\n", url)
	}

	fmt.Println("\n按 Ctrl+C 停止服务...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n正在关闭服务...")
}
