package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/drinkwell/internal/config"
	"github.com/drinkwell/internal/db"
)

func main() {
	cfg := config.Load()

	// 初始化数据库
	gdb, err := db.Open(cfg.DatabasePath, nil)
	if err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	// 检查是否已存在用户
	exists, err := db.HasUsers(gdb)
	if err != nil {
		log.Fatal("查询用户失败:", err)
	}
	if exists {
		fmt.Println("用户已存在，无需初始化")
		return
	}

	username := cfg.AppUserName
	if username == "" {
		username = "owner"
	}
	password := cfg.AppPassword
	if password == "" && len(os.Args) > 1 {
		password = strings.TrimSpace(os.Args[1])
	}
	if password == "" {
		log.Fatal("请通过 APP_PASSWORD 或命令行参数提供密码")
	}

	if err := db.EnsureUser(gdb, username, password); err != nil {
		log.Fatal("创建用户失败:", err)
	}

	fmt.Println("账号创建成功")
	fmt.Println("用户名:", username)
}
