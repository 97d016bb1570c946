package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/drinkwell/internal/config"
	"github.com/drinkwell/internal/db"
	"github.com/drinkwell/internal/service"
)

const seedDays = 45

var (
	// 每天的饮水时间点与基础水量，按日期轮换偏移，保证数据有起伏
	seedSlots = []struct {
		hour   int
		minute int
		amount float64
	}{
		{hour: 8, minute: 10, amount: 300},
		{hour: 10, minute: 30, amount: 250},
		{hour: 13, minute: 0, amount: 400},
		{hour: 15, minute: 45, amount: 250},
		{hour: 18, minute: 20, amount: 350},
		{hour: 21, minute: 0, amount: 200},
	}
	seedNotes = []string{"", "", "after run", "", "**green tea**", ""}
)

// 测试数据生成器
func main() {
	cfg := config.Load()

	// 初始化数据库
	gdb, err := db.Open(cfg.DatabasePath, nil)
	if err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	app, err := service.NewApp(service.Options{DB: gdb, Location: cfg.Location})
	if err != nil {
		log.Fatal("初始化应用失败:", err)
	}
	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Fatal("加载数据失败:", err)
	}

	if existing := len(app.Intakes.List(nil, nil)); existing > 0 {
		fmt.Printf("已存在 %d 条饮水记录，跳过生成\n", existing)
		return
	}

	fmt.Println("开始生成测试数据...")
	inputs := buildIntakeHistory(time.Now().In(cfg.Location), seedDays)
	for _, input := range inputs {
		if _, err := app.Intakes.Add(input); err != nil {
			log.Fatal("生成饮水记录失败:", err)
		}
	}
	if err := app.SaveIntakes(ctx); err != nil {
		log.Fatal("保存饮水记录失败:", err)
	}

	fmt.Printf("测试数据生成完成，共 %d 条记录\n", len(inputs))
}

// buildIntakeHistory 生成截至 end 所在日期的 days 天饮水记录，不包含 end 之后的时间点
func buildIntakeHistory(end time.Time, days int) []service.IntakeInput {
	if days <= 0 {
		return nil
	}

	loc := end.Location()
	today := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)
	inputs := make([]service.IntakeInput, 0, days*len(seedSlots))

	for offset := days - 1; offset >= 0; offset-- {
		day := today.AddDate(0, 0, -offset)
		// 每隔几天少喝一次，让达标与未达标的日子交替出现
		skip := offset % 4
		for i, slot := range seedSlots {
			if offset%3 == 0 && i == skip {
				continue
			}
			ts := time.Date(day.Year(), day.Month(), day.Day(), slot.hour, slot.minute, 0, 0, loc)
			if ts.After(end) {
				continue
			}
			inputs = append(inputs, service.IntakeInput{
				Amount:    slot.amount + float64((offset*7+i*13)%5)*25,
				Timestamp: ts,
				Note:      seedNotes[(offset+i)%len(seedNotes)],
			})
		}
	}
	return inputs
}
