package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/op/go-logging"
	"github.com/spf13/cobra"

	"memberhub/config"
	"memberhub/database"
	"memberhub/logger"
	"memberhub/web"
	"memberhub/web/service"
)

func runWebServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("%v %v", config.GetName(), config.GetVersion())

	switch cfg.LogLevel {
	case config.Debug:
		logger.InitLogger(logging.DEBUG)
	case config.Info:
		logger.InitLogger(logging.INFO)
	case config.Notice:
		logger.InitLogger(logging.NOTICE)
	case config.Warn:
		logger.InitLogger(logging.WARNING)
	case config.Error:
		logger.InitLogger(logging.ERROR)
	default:
		log.Fatal("unknown log level:", cfg.LogLevel)
	}
	defer logger.CloseLogger()

	// Without the credential store there is no portal to serve.
	if err := database.InitDB(cfg); err != nil {
		log.Fatal(err)
	}
	defer database.CloseDB()

	server := web.NewServer(cfg)
	if err := server.Start(); err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer(cfg)
			if err := server.Start(); err != nil {
				log.Println(err)
				return
			}
		default:
			_ = server.Stop()
			return
		}
	}
}

// resetAdmin sets the admin account's email and password from the command
// line, creating the account when missing.
func resetAdmin(email, password string) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println(err)
		return
	}
	if email != "" {
		cfg.AdminEmail = email
	}
	if password != "" {
		cfg.AdminPassword = password
	}

	if err := database.InitDB(cfg); err != nil {
		fmt.Println(err)
		return
	}
	defer database.CloseDB()

	userService := service.UserService{}
	if err := userService.ResetAdmin(cfg.AdminEmail, cfg.AdminPassword); err != nil {
		fmt.Println("reset admin failed:", err)
	} else {
		fmt.Println("reset admin success")
	}
}

func main() {
	var rootCmd = &cobra.Command{
		Use: "memberhub",
	}

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var adminCmd = &cobra.Command{
		Use:   "admin",
		Short: "Reset the admin account credentials",
		Run: func(cmd *cobra.Command, args []string) {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			resetAdmin(email, password)
		},
	}
	adminCmd.Flags().String("email", "", "set admin email")
	adminCmd.Flags().String("password", "", "set admin password")

	rootCmd.AddCommand(runCmd, adminCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
