package bot

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"finbot/internal/core"
	"finbot/internal/log"
	"finbot/internal/report"
)

const (
	msgNoChartData      = "📊 У вас пока нет расходов для построения диаграммы."
	msgAddCategoryUsage = "Неверный формат\n\n"
)

// splitCommand separates "/cmd@bot args" into "cmd" and "args".
func splitCommand(text string) (string, string) {
	text = strings.TrimPrefix(text, "/")
	idx := strings.IndexFunc(text, unicode.IsSpace)
	name, args := text, ""
	if idx >= 0 {
		name, args = text[:idx], strings.TrimSpace(text[idx:])
	}
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), args
}

func (d *Dispatcher) command(ctx context.Context, userID int64, firstName, text string) (Reply, error) {
	name, args := splitCommand(text)
	d.logger.DebugContext(ctx, "Command received", log.FieldUserID, userID, "command", name)

	switch name {
	case "start", "help":
		return d.welcome(firstName), nil
	case "list":
		return d.listText(ctx, userID)
	case "balance":
		return d.balance(ctx, userID)
	case "stats":
		return d.stats(ctx, userID)
	case "month":
		return d.month(ctx, userID)
	case "chart":
		return d.chart(ctx, userID)
	case "history":
		return d.history(ctx, userID)
	case "categories":
		return Reply{Text: msgCategoriesMenu, Keyboard: categoriesKeyboard()}, nil
	case "add_category":
		return d.addCategory(ctx, userID, args)
	case "my_categories":
		return d.myCategories(ctx, userID)
	case "delete_category":
		return d.deleteCategory(ctx, userID, args)
	case "clear":
		return d.clear(ctx, userID)
	case "myid":
		return Reply{Text: formatWhoAmI(userID, firstName)}, nil
	case "debug":
		return d.debug(ctx, userID)
	case "cancel":
		return d.cancel(userID), nil
	default:
		return Reply{Text: msgUnknownCommand, Keyboard: mainKeyboard()}, nil
	}
}

func (d *Dispatcher) welcome(firstName string) Reply {
	text := welcomeText
	if firstName != "" {
		text = "Привет, " + firstName + "!\n\n" + text
	}
	return Reply{Text: text, Keyboard: mainKeyboard()}
}

func (d *Dispatcher) listText(ctx context.Context, userID int64) (Reply, error) {
	txs, err := d.ledger.List(ctx, userID, 0)
	if err != nil {
		return Reply{}, err
	}
	if len(txs) == 0 {
		return Reply{Text: msgNoOperations, Keyboard: mainKeyboard()}, nil
	}
	return Reply{Text: formatTransactionList(txs), Keyboard: mainKeyboard()}, nil
}

func (d *Dispatcher) balance(ctx context.Context, userID int64) (Reply, error) {
	stats, err := d.ledger.Statistics(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: formatBalance(stats), Keyboard: mainKeyboard()}, nil
}

func (d *Dispatcher) expenseShares(ctx context.Context, userID int64) ([]report.CategoryShare, int64, error) {
	txs, err := d.ledger.List(ctx, userID, 0)
	if err != nil {
		return nil, 0, err
	}
	shares, total := report.ExpenseBreakdown(txs)
	return shares, total, nil
}

func (d *Dispatcher) stats(ctx context.Context, userID int64) (Reply, error) {
	shares, total, err := d.expenseShares(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	if len(shares) == 0 {
		return Reply{Text: msgNoExpenses, Keyboard: mainKeyboard()}, nil
	}
	return Reply{Text: formatStats("📊 Статистика по категориям:", shares, total), Keyboard: statsKeyboard()}, nil
}

func (d *Dispatcher) month(ctx context.Context, userID int64) (Reply, error) {
	now := d.ledger.Now()
	txs, err := d.ledger.ListByMonth(ctx, userID, now.Year(), now.Month())
	if err != nil {
		return Reply{}, err
	}
	if len(txs) == 0 {
		return Reply{Text: msgNoMonthOps, Keyboard: mainKeyboard()}, nil
	}
	summary := report.Summarize(now.Year(), now.Month(), txs)
	return Reply{Text: formatMonth(summary), Keyboard: statsKeyboard()}, nil
}

// chart falls back to the text statistics when no renderer is configured or
// rendering fails.
func (d *Dispatcher) chart(ctx context.Context, userID int64) (Reply, error) {
	shares, total, err := d.expenseShares(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	if len(shares) == 0 {
		return Reply{Text: msgNoChartData, Keyboard: mainKeyboard()}, nil
	}
	if d.charts == nil {
		return Reply{Text: formatStats("📊 Статистика по категориям:", shares, total), Keyboard: statsKeyboard()}, nil
	}

	img, err := d.charts.ExpensesChart(ctx, report.ByCategory(shares))
	if err != nil {
		d.logger.WarnContext(ctx, "Chart rendering failed, sending text",
			log.FieldUserID, userID, log.FieldError, err)
		return Reply{Text: formatStats("📊 Статистика по категориям:", shares, total), Keyboard: statsKeyboard()}, nil
	}
	return Reply{Text: formatStats("📊 Статистика расходов:", shares, total), Image: img, Keyboard: statsKeyboard()}, nil
}

func (d *Dispatcher) history(ctx context.Context, userID int64) (Reply, error) {
	months, err := report.History(ctx, d.ledger, userID, d.ledger.Now(), d.historyMonths)
	if err != nil {
		return Reply{}, err
	}
	if income, expense := report.Totals(months); income == 0 && expense == 0 {
		return Reply{Text: msgNoHistory, Keyboard: mainKeyboard()}, nil
	}

	reply := Reply{Text: formatHistory(months), Keyboard: statsKeyboard()}
	if d.charts == nil {
		return reply, nil
	}
	img, err := d.charts.HistoryChart(ctx, months)
	if err != nil {
		d.logger.WarnContext(ctx, "History chart rendering failed, sending text",
			log.FieldUserID, userID, log.FieldError, err)
		return reply, nil
	}
	reply.Image = img
	return reply, nil
}

// addCategory handles "/add_category Name kw1,kw2". The name is one word;
// everything after it is the keyword list.
func (d *Dispatcher) addCategory(ctx context.Context, userID int64, args string) (Reply, error) {
	name, rest := splitFirst(args)
	keywords := core.ParseKeywords(rest)
	if name == "" || len(keywords) == 0 {
		return Reply{Text: msgAddCategoryUsage + addCategoryHelp, Keyboard: categoriesKeyboard()}, nil
	}

	ok, err := d.ledger.AddCategoryRule(ctx, userID, name, keywords)
	if err != nil {
		return Reply{}, err
	}
	if !ok {
		return Reply{Text: fmt.Sprintf("❌ Категория '%s' уже существует", name), Keyboard: categoriesKeyboard()}, nil
	}
	text := fmt.Sprintf("✅ Категория '%s' добавлена!\n\nКлючевые слова: %s\n\nТеперь при добавлении трат с этими словами будет автоматически определяться ваша категория.",
		name, strings.Join(keywords, ", "))
	return Reply{Text: text, Keyboard: categoriesKeyboard()}, nil
}

func (d *Dispatcher) myCategories(ctx context.Context, userID int64) (Reply, error) {
	rules, err := d.ledger.CategoryRules(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	if len(rules) == 0 {
		return Reply{Text: msgNoPersonal, Keyboard: categoriesKeyboard()}, nil
	}
	return Reply{Text: formatRules(rules), Keyboard: categoriesKeyboard()}, nil
}

func (d *Dispatcher) deleteCategory(ctx context.Context, userID int64, name string) (Reply, error) {
	if name == "" {
		return Reply{Text: msgAddCategoryUsage + deleteCategoryHelp, Keyboard: categoriesKeyboard()}, nil
	}
	ok, err := d.ledger.DeleteCategoryRule(ctx, userID, name)
	if err != nil {
		return Reply{}, err
	}
	if !ok {
		text := fmt.Sprintf("❌ Категория '%s' не найдена.\n\nИспользуйте /my_categories чтобы посмотреть ваши категории.", name)
		return Reply{Text: text, Keyboard: categoriesKeyboard()}, nil
	}
	return Reply{Text: fmt.Sprintf("🗑 Категория '%s' удалена!", name), Keyboard: categoriesKeyboard()}, nil
}

// clear also drops a pending edit, whose target no longer exists.
func (d *Dispatcher) clear(ctx context.Context, userID int64) (Reply, error) {
	n, err := d.ledger.Clear(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	d.sessions.End(userID)
	d.logger.InfoContext(ctx, "History cleared", log.FieldUserID, userID, "removed", n)
	return Reply{Text: msgCleared, Keyboard: mainKeyboard()}, nil
}

func (d *Dispatcher) debug(ctx context.Context, userID int64) (Reply, error) {
	txs, err := d.ledger.List(ctx, userID, 0)
	if err != nil {
		return Reply{}, err
	}
	rules, err := d.ledger.CategoryRules(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: formatDebug(userID, len(txs), len(rules))}, nil
}

func (d *Dispatcher) cancel(userID int64) Reply {
	if _, ok := d.sessions.Peek(userID); !ok {
		return Reply{Text: msgNothingToCancel, Keyboard: mainKeyboard()}
	}
	d.sessions.End(userID)
	return Reply{Text: msgCancelled, Keyboard: mainKeyboard()}
}

func splitFirst(s string) (string, string) {
	s = strings.TrimSpace(s)
	idx := strings.IndexFunc(s, unicode.IsSpace)
	if idx < 0 {
		return s, ""
	}
	return s[:idx], strings.TrimSpace(s[idx:])
}
