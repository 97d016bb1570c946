package locale

// Pick returns the text matching the language, defaulting to English.
func Pick(language, english, turkish string) string {
	if NormalizeLanguage(language) == LanguageTurkish {
		if turkish != "" {
			return turkish
		}
		return english
	}
	if english != "" {
		return english
	}
	return turkish
}

type reminderText struct {
	english string
	turkish string
}

var (
	reminderTitle = reminderText{english: "Time to drink water", turkish: "Su içme zamanı"}

	reminderMessages = []reminderText{
		{english: "A glass of water keeps you going. Take a sip!", turkish: "Bir bardak su seni canlı tutar. Bir yudum al!"},
		{english: "Your body needs water. Don't forget your goal!", turkish: "Vücudunun suya ihtiyacı var. Hedefini unutma!"},
		{english: "Stay hydrated, stay focused.", turkish: "Susuz kalma, odaklı kal."},
		{english: "Small sips add up. Drink some water now.", turkish: "Küçük yudumlar birikir. Şimdi biraz su iç."},
	}
)

// ReminderTitle 返回提醒通知的标题。
func ReminderTitle(language string) string {
	return Pick(language, reminderTitle.english, reminderTitle.turkish)
}

// ReminderMessage 按小时轮换提醒正文，同一小时的内容不随提醒频率变化。
func ReminderMessage(language string, hour int) string {
	if hour < 0 {
		hour = -hour
	}
	message := reminderMessages[hour%len(reminderMessages)]
	return Pick(language, message.english, message.turkish)
}
