// Package replies centralizes the user-facing reply texts so handlers stay
// free of literal strings and the wording can be reviewed in one place.
package replies

import (
	"fmt"
	"strings"

	"IzdatBot/entity"
)

const (
	Greeting = "Здравствуйте! Я бот издательства. Напишите имя или псевдоним, под которым вы с нами работаете."

	SomethingWentWrong = "Что-то пошло не так. Попробуйте ещё раз чуть позже."
	StillWorking       = "Я ещё обрабатываю ваше предыдущее сообщение, подождите секунду и повторите."
	NothingInProgress  = "Сейчас нет активного диалога. Отправьте команду, чтобы начать."
	ButtonExpired      = "Эта кнопка устарела. Начните заново."
	ActionUnavailable  = "Это действие здесь недоступно."
	TookTooLong        = "Обработка заняла слишком много времени. Повторите последнее сообщение."
	PleaseRepeat       = "Пожалуйста, повторите последнее сообщение."
	ConversationReset  = "Диалог был сброшен. Начните заново."
)

// Lookup covers the contractor search step.
var Lookup = struct {
	NotFound     string
	PickYourself string
	NotMe        string
}{
	NotFound:     "Не нашёл вас в базе. Давайте зарегистрируемся.",
	PickYourself: "Нашёл несколько похожих записей. Выберите себя:",
	NotMe:        "Меня нет в списке",
}

// Verification covers the secret-code check.
var Verification = struct {
	AskCode      string
	WrongCode    string
	TooManyTries string
	Verified     string
}{
	AskCode:      "Для подтверждения личности введите секретный код, который вам выдали.",
	WrongCode:    "Код не подошёл. Попробуйте ещё раз.",
	TooManyTries: "Слишком много неверных попыток. Обратитесь к администратору.",
	Verified:     "Личность подтверждена, спасибо!",
}

// Registration covers new-contractor onboarding.
var Registration = struct {
	Begin      string
	TypePrompt string
	BadType    string
	Invalid    string
	Saved      string
}{
	Begin: "Для начала работы нужно заполнить ваши реквизиты.",
	TypePrompt: "Кто вы?\n" +
		"1 — самозанятый (РФ)\n" +
		"2 — ИП (РФ)\n" +
		"3 — работаю из-за рубежа",
	BadType: "Не понял. Отправьте 1, 2 или 3.",
	Invalid: "Часть данных выглядит некорректно. Проверьте и отправьте ещё раз.",
	Saved:   "Реквизиты сохранены, спасибо!",
}

// Invoice covers the payout amount step.
var Invoice = struct {
	AskAmount string
	BadAmount string
}{
	AskAmount: "Введите сумму к выплате (числом).",
	BadAmount: "Не получилось разобрать сумму. Отправьте число, например 15000 или 150.50.",
}

// Update covers the requisite-update flow.
var Update = struct {
	ChooseField string
	UseButtons  string
	AskValue    string
	BadValue    string
	Saved       string
}{
	ChooseField: "Какое поле нужно обновить?",
	UseButtons:  "Выберите поле кнопкой ниже.",
	AskValue:    "Отправьте новое значение.",
	BadValue:    "Значение не подходит для этого поля. Попробуйте ещё раз.",
	Saved:       "Готово, поле обновлено.",
}

// Welcome greets a recognized contractor by name.
func Welcome(name string) string {
	return fmt.Sprintf("Рад снова вас видеть, %s!", name)
}

// DataPrompt asks a new contractor for all required fields at once.
func DataPrompt(t entity.ContractorType) string {
	var b strings.Builder
	b.WriteString("Отправьте одним сообщением следующие данные:\n")
	for _, meta := range entity.RequiredFields(t) {
		b.WriteString("• ")
		b.WriteString(meta.Label)
		b.WriteString("\n")
	}
	b.WriteString("Можно в свободной форме, я разберу.")
	return b.String()
}

// MissingFields asks for the fields still absent after a parse round.
func MissingFields(labels []string) string {
	return "Почти готово! Осталось указать: " + strings.Join(labels, ", ") + "."
}

// InvoiceCreated confirms the payout record.
func InvoiceCreated(inv *entity.Invoice) string {
	return fmt.Sprintf("Счёт №%d на %.2f %s записан. Спасибо!",
		inv.InvoiceNumber, inv.Amount, inv.Currency)
}

// PendingInvoiceNotice tells a verified contractor an invoice awaits an amount.
func PendingInvoiceNotice(month string) string {
	return fmt.Sprintf("За %s у вас есть публикации, по которым нужен счёт.", month)
}
