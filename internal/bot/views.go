package bot

import (
	"fmt"
	"strconv"
	"strings"

	"finbot/internal/core"
	"finbot/internal/report"
)

// Button data. Prefixed values carry a transaction id after the prefix.
const (
	btnListOperations     = "list_operations"
	btnListPage           = "list_page_"
	btnEditOperation      = "edit_op_"
	btnEditAmount         = "edit_amount_"
	btnEditDescription    = "edit_desc_"
	btnEditType           = "edit_type_"
	btnEditCategory       = "edit_category_"
	btnSetCategory        = "set_category_"
	btnDeleteOperation    = "delete_op_"
	btnConfirmDelete      = "confirm_delete_"
	btnShowStats          = "show_stats"
	btnShowBalance        = "show_balance"
	btnShowMonth          = "show_month"
	btnShowChart          = "show_chart"
	btnShowHistory        = "show_history"
	btnShowCategories     = "show_categories"
	btnAddCategory        = "add_category"
	btnMyCategories       = "my_categories"
	btnDeleteCategory     = "delete_category"
	btnStandardCategories = "standard_categories"
	btnMainMenu           = "main_menu"
	btnCancelEdit         = "cancel_edit"
)

const (
	listLabelDescriptionRunes = 20
	standardKeywordPreview    = 3
	timeLayout                = "02.01.2006 15:04"
)

func mainKeyboard() [][]Button {
	return [][]Button{
		{{"📋 Список операций", btnListOperations}, {"📊 Статистика", btnShowStats}},
		{{"💰 Баланс", btnShowBalance}, {"📅 За месяц", btnShowMonth}},
		{{"📂 Категории", btnShowCategories}},
	}
}

func quickKeyboard() [][]Button {
	return [][]Button{
		{{"📋 Список", btnListOperations}, {"📊 Статистика", btnShowStats}},
		{{"🏠 Главное меню", btnMainMenu}},
	}
}

func categoriesKeyboard() [][]Button {
	return [][]Button{
		{{"➕ Добавить категорию", btnAddCategory}, {"📋 Мои категории", btnMyCategories}},
		{{"🗑 Удалить категорию", btnDeleteCategory}, {"📖 Стандартные", btnStandardCategories}},
		{{"🏠 Главное меню", btnMainMenu}},
	}
}

func statsKeyboard() [][]Button {
	return [][]Button{
		{{"📅 За месяц", btnShowMonth}, {"📊 Общая", btnShowStats}},
		{{"📈 Диаграмма", btnShowChart}, {"📋 История", btnShowHistory}},
		{{"🏠 Главное меню", btnMainMenu}},
	}
}

func editKeyboard(id int64) [][]Button {
	return [][]Button{
		{{"✏️ Изменить сумму", withID(btnEditAmount, id)}, {"📝 Изменить описание", withID(btnEditDescription, id)}},
		{{"🔄 Изменить тип", withID(btnEditType, id)}, {"📂 Изменить категорию", withID(btnEditCategory, id)}},
		{{"🗑 Удалить операцию", withID(btnDeleteOperation, id)}},
		{{"📋 Назад к списку", btnListOperations}, {"🏠 Главное меню", btnMainMenu}},
	}
}

// inputKeyboard is shown while the bot waits for typed edit input.
func inputKeyboard(id int64) [][]Button {
	return [][]Button{
		{{"❌ Отмена", btnCancelEdit}, {"↩️ Назад", withID(btnEditOperation, id)}},
	}
}

func confirmDeleteKeyboard(id int64) [][]Button {
	return [][]Button{
		{{"✅ Да, удалить", withID(btnConfirmDelete, id)}, {"❌ Отмена", withID(btnEditOperation, id)}},
	}
}

func categoryPickKeyboard(id int64, names []string) [][]Button {
	rows := make([][]Button, 0, len(names)+1)
	for _, name := range names {
		rows = append(rows, []Button{{"📁 " + name, withID(btnSetCategory, id) + "_" + name}})
	}
	return append(rows, []Button{{"↩️ Назад", withID(btnEditOperation, id)}})
}

// operationsKeyboard renders one page of txs plus navigation. page must
// already be clamped to the valid range.
func operationsKeyboard(txs []core.Transaction, page, pageSize int) [][]Button {
	start := page * pageSize
	end := min(start+pageSize, len(txs))

	rows := make([][]Button, 0, end-start+2)
	for _, t := range txs[start:end] {
		rows = append(rows, []Button{{operationLabel(t), withID(btnEditOperation, t.ID)}})
	}

	var nav []Button
	if page > 0 {
		nav = append(nav, Button{"⬅️ Назад", btnListPage + strconv.Itoa(page-1)})
	}
	if end < len(txs) {
		nav = append(nav, Button{"Вперед ➡️", btnListPage + strconv.Itoa(page+1)})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return append(rows, []Button{{"🏠 Главное меню", btnMainMenu}})
}

func pageCount(n, pageSize int) int {
	if n == 0 {
		return 1
	}
	return (n + pageSize - 1) / pageSize
}

func withID(prefix string, id int64) string {
	return prefix + strconv.FormatInt(id, 10)
}

func kindIcon(k core.Kind) string {
	if k == core.Income {
		return "✅"
	}
	return "🔴"
}

func categorySuffix(t core.Transaction) string {
	if t.Kind != core.Expense {
		return ""
	}
	return " [" + t.Category + "]"
}

func operationLabel(t core.Transaction) string {
	return fmt.Sprintf("%s %d руб. - %s%s", kindIcon(t.Kind), t.Amount, truncate(t.Description, listLabelDescriptionRunes), categorySuffix(t))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func formatAdded(t core.Transaction) string {
	if t.Kind == core.Income {
		return fmt.Sprintf("✅ Записал доход: %s - +%d руб.", t.Description, t.Amount)
	}
	return fmt.Sprintf("🔴 Записал расход: %s - %d руб. [%s]", t.Description, t.Amount, t.Category)
}

func (d *Dispatcher) formatCard(title string, t core.Transaction) string {
	return fmt.Sprintf("✏️ %s:\n\n%s %d руб. - %s%s\n\n📅 %s\n\nВыберите действие:",
		title, kindIcon(t.Kind), t.Amount, t.Description, categorySuffix(t), t.CreatedAt.In(d.loc).Format(timeLayout))
}

func formatTransactionLine(t core.Transaction) string {
	if t.Kind == core.Income {
		return fmt.Sprintf("✅ +%d руб. - %s", t.Amount, t.Description)
	}
	return fmt.Sprintf("🔴 %d руб. - %s [%s]", t.Amount, t.Description, t.Category)
}

func formatTransactionList(txs []core.Transaction) string {
	var b strings.Builder
	b.WriteString("📊 Ваши операции:\n\n")
	for _, t := range txs {
		b.WriteString(formatTransactionLine(t))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatShares(b *strings.Builder, shares []report.CategoryShare) {
	for _, s := range shares {
		fmt.Fprintf(b, "• %s: %s руб. (%s%%)\n", s.Name, core.FormatAmount(s.Amount), s.Percent.StringFixed(1))
	}
}

func formatStats(title string, shares []report.CategoryShare, total int64) string {
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")
	formatShares(&b, shares)
	fmt.Fprintf(&b, "\n💵 Всего расходов: %s руб.", core.FormatAmount(total))
	return b.String()
}

func formatBalance(s core.Statistics) string {
	return fmt.Sprintf("💰 Ваш финансовый баланс\n\n📈 Доходы: +%s руб.\n📉 Расходы: -%s руб.\n———————————————\n💵 Баланс: %s руб.",
		core.FormatAmount(s.TotalIncome), core.FormatAmount(s.TotalExpense), core.FormatAmount(s.Balance))
}

func formatMonth(m report.MonthSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 Статистика за %s:\n\n", report.MonthName(m.Year, m.Month))
	fmt.Fprintf(&b, "📈 Доходы: +%s руб.\n", core.FormatAmount(m.Income))
	fmt.Fprintf(&b, "📉 Расходы: -%s руб.\n", core.FormatAmount(m.Expense))
	fmt.Fprintf(&b, "💵 Баланс: %s руб.\n", core.FormatAmount(m.Balance()))
	if len(m.Categories) > 0 {
		b.WriteString("\nРасходы по категориям:\n")
		formatShares(&b, m.Categories)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatHistory(months []report.MonthSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📈 Динамика за %d месяцев:\n\n", len(months))
	for _, m := range months {
		if m.Empty() {
			continue
		}
		fmt.Fprintf(&b, "• %s: +%s / -%s руб. (баланс: %s руб.)\n",
			report.ShortMonthName(m.Year, m.Month),
			core.FormatAmount(m.Income), core.FormatAmount(m.Expense), core.FormatAmount(m.Balance()))
	}
	income, expense := report.Totals(months)
	fmt.Fprintf(&b, "\n💰 Итого за период:\nДоходы: +%s руб.\nРасходы: -%s руб.\nБаланс: %s руб.",
		core.FormatAmount(income), core.FormatAmount(expense), core.FormatAmount(income-expense))
	return b.String()
}

func formatRules(rules []core.CategoryRule) string {
	var b strings.Builder
	b.WriteString("📂 Ваши персональные категории:\n\n")
	for _, r := range rules {
		fmt.Fprintf(&b, "• %s: %s\n", r.Name, strings.Join(r.Keywords, ", "))
	}
	fmt.Fprintf(&b, "\n📊 Всего категорий: %d", len(rules))
	return b.String()
}

func formatStandard(cats []core.Category) string {
	var b strings.Builder
	b.WriteString("📖 Стандартные категории:\n\n")
	for _, c := range cats {
		kw := c.Keywords
		if len(kw) > standardKeywordPreview {
			kw = kw[:standardKeywordPreview]
		}
		fmt.Fprintf(&b, "• %s: %s...\n", c.Name, strings.Join(kw, ", "))
	}
	b.WriteString(msgStandardFooter)
	return b.String()
}

func formatDebug(userID int64, ops, rules int) string {
	return fmt.Sprintf("🔍 Отладочная информация\n\n🆔 Ваш user_id: %d\n📊 Ваших операций: %d\n📂 Персональных категорий: %d\n\nДанные хранятся отдельно для каждого user_id.",
		userID, ops, rules)
}

func formatWhoAmI(userID int64, firstName string) string {
	if firstName == "" {
		return fmt.Sprintf("🆔 Ваш user_id: %d", userID)
	}
	return fmt.Sprintf("🆔 Ваш user_id: %d\n👤 Имя: %s", userID, firstName)
}
