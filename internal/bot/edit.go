package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"finbot/internal/core"
	"finbot/internal/log"
	"finbot/internal/session"
)

func (d *Dispatcher) button(ctx context.Context, userID int64, data string) (Reply, error) {
	switch data {
	case btnListOperations:
		return d.listPage(ctx, userID, 0)
	case btnShowStats:
		return d.stats(ctx, userID)
	case btnShowBalance:
		return d.balance(ctx, userID)
	case btnShowMonth:
		return d.month(ctx, userID)
	case btnShowChart:
		return d.chart(ctx, userID)
	case btnShowHistory:
		return d.history(ctx, userID)
	case btnShowCategories:
		return Reply{Text: msgCategoriesMenu, Keyboard: categoriesKeyboard()}, nil
	case btnAddCategory:
		return Reply{Text: addCategoryHelp, Keyboard: categoriesKeyboard()}, nil
	case btnMyCategories:
		return d.myCategories(ctx, userID)
	case btnDeleteCategory:
		return Reply{Text: deleteCategoryHelp, Keyboard: categoriesKeyboard()}, nil
	case btnStandardCategories:
		return Reply{Text: formatStandard(d.ledger.StandardCategories()), Keyboard: categoriesKeyboard()}, nil
	case btnMainMenu:
		return d.welcome(""), nil
	case btnCancelEdit:
		return d.cancel(userID), nil
	}

	switch {
	case strings.HasPrefix(data, btnListPage):
		page, err := strconv.Atoi(strings.TrimPrefix(data, btnListPage))
		if err != nil {
			return unknownAction(), nil
		}
		return d.listPage(ctx, userID, page)
	case strings.HasPrefix(data, btnSetCategory):
		return d.setCategory(ctx, userID, strings.TrimPrefix(data, btnSetCategory))
	}

	handlers := []struct {
		prefix string
		fn     func(context.Context, int64, int64) (Reply, error)
	}{
		{btnEditOperation, d.editMenu},
		{btnEditAmount, d.beginAmount},
		{btnEditDescription, d.beginDescription},
		{btnEditType, d.flipKind},
		{btnEditCategory, d.chooseCategory},
		{btnDeleteOperation, d.askDelete},
		{btnConfirmDelete, d.confirmDelete},
	}
	for _, h := range handlers {
		if !strings.HasPrefix(data, h.prefix) {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(data, h.prefix), 10, 64)
		if err != nil {
			return unknownAction(), nil
		}
		return h.fn(ctx, userID, id)
	}

	d.logger.DebugContext(ctx, "Unknown button", log.FieldUserID, userID, "data", data)
	return unknownAction(), nil
}

func unknownAction() Reply {
	return Reply{Text: msgUnknownAction, Keyboard: mainKeyboard()}
}

// listPage shows one page of the user's transactions as edit buttons. Out of
// range pages are clamped.
func (d *Dispatcher) listPage(ctx context.Context, userID int64, page int) (Reply, error) {
	txs, err := d.ledger.List(ctx, userID, 0)
	if err != nil {
		return Reply{}, err
	}
	if len(txs) == 0 {
		return Reply{Text: msgNoOperations, Keyboard: mainKeyboard()}, nil
	}

	pages := pageCount(len(txs), d.pageSize)
	page = max(0, min(page, pages-1))

	text := "📊 Ваши операции:\n\nНажмите на операцию для редактирования:"
	if pages > 1 {
		text += fmt.Sprintf("\n\nСтраница %d из %d", page+1, pages)
	}
	return Reply{Text: text, Keyboard: operationsKeyboard(txs, page, d.pageSize)}, nil
}

// editMenu opens the edit card. Any pending typed edit is dropped.
func (d *Dispatcher) editMenu(ctx context.Context, userID, id int64) (Reply, error) {
	t, err := d.owned(ctx, userID, id)
	if err != nil {
		return Reply{}, err
	}
	d.sessions.End(userID)
	return Reply{Text: d.formatCard("Редактирование операции", *t), Keyboard: editKeyboard(t.ID)}, nil
}

func (d *Dispatcher) beginAmount(ctx context.Context, userID, id int64) (Reply, error) {
	if _, err := d.owned(ctx, userID, id); err != nil {
		return Reply{}, err
	}
	d.sessions.Begin(userID, session.ActionAmount, id)
	return Reply{Text: msgEnterAmount, Keyboard: inputKeyboard(id)}, nil
}

func (d *Dispatcher) beginDescription(ctx context.Context, userID, id int64) (Reply, error) {
	if _, err := d.owned(ctx, userID, id); err != nil {
		return Reply{}, err
	}
	d.sessions.Begin(userID, session.ActionDescription, id)
	return Reply{Text: msgEnterDescription, Keyboard: inputKeyboard(id)}, nil
}

// flipKind swaps income and expense and re-derives the category for the new kind.
func (d *Dispatcher) flipKind(ctx context.Context, userID, id int64) (Reply, error) {
	t, err := d.owned(ctx, userID, id)
	if err != nil {
		return Reply{}, err
	}
	kind := t.Kind.Opposite()
	category, err := d.ledger.DeriveCategory(ctx, userID, kind, t.Description)
	if err != nil {
		return Reply{}, err
	}
	if err := d.update(ctx, id, core.TransactionPatch{Kind: &kind, Category: &category}); err != nil {
		return Reply{}, err
	}
	return d.updatedCard(ctx, userID, id, msgTypeChanged)
}

func (d *Dispatcher) chooseCategory(ctx context.Context, userID, id int64) (Reply, error) {
	t, err := d.owned(ctx, userID, id)
	if err != nil {
		return Reply{}, err
	}
	if t.Kind == core.Income {
		return Reply{Text: msgIncomeNoCategory, Keyboard: editKeyboard(id)}, nil
	}
	names, err := d.ledger.CategoryNames(ctx, userID)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Text: msgChooseCategory, Keyboard: categoryPickKeyboard(id, names)}, nil
}

// setCategory handles "<id>_<name>". Names may contain underscores, so only
// the first one separates the id.
func (d *Dispatcher) setCategory(ctx context.Context, userID int64, payload string) (Reply, error) {
	idPart, name, found := strings.Cut(payload, "_")
	name = strings.TrimSpace(name)
	id, err := strconv.ParseInt(idPart, 10, 64)
	if !found || err != nil || name == "" {
		return unknownAction(), nil
	}

	t, err := d.owned(ctx, userID, id)
	if err != nil {
		return Reply{}, err
	}
	if t.Kind == core.Income {
		return Reply{Text: msgIncomeNoCategory, Keyboard: editKeyboard(id)}, nil
	}
	if err := d.update(ctx, id, core.TransactionPatch{Category: &name}); err != nil {
		return Reply{}, err
	}
	return d.updatedCard(ctx, userID, id, "✅ Категория изменена на: "+name)
}

func (d *Dispatcher) askDelete(ctx context.Context, userID, id int64) (Reply, error) {
	t, err := d.owned(ctx, userID, id)
	if err != nil {
		return Reply{}, err
	}
	text := fmt.Sprintf("🗑 Подтвердите удаление:\n\n%d руб. - %s", t.Amount, t.Description)
	return Reply{Text: text, Keyboard: confirmDeleteKeyboard(id)}, nil
}

func (d *Dispatcher) confirmDelete(ctx context.Context, userID, id int64) (Reply, error) {
	if _, err := d.owned(ctx, userID, id); err != nil {
		return Reply{}, err
	}
	ok, err := d.ledger.Delete(ctx, id)
	if err != nil {
		return Reply{}, err
	}
	if !ok {
		return Reply{}, core.ErrNotFound
	}
	if s, active := d.sessions.Peek(userID); active && s.TransactionID == id {
		d.sessions.End(userID)
	}
	return Reply{Text: msgDeleted, Keyboard: mainKeyboard()}, nil
}

// applyAmount handles typed input for an amount edit. Format and sign errors
// keep the session so the user can retry.
func (d *Dispatcher) applyAmount(ctx context.Context, userID, id int64, text string) (Reply, error) {
	amount, kind, err := core.ParseAmountInput(text)
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return Reply{Text: msgAmountNotPositive, Keyboard: inputKeyboard(id)}, nil
	case err != nil:
		return Reply{Text: msgAmountFormat, Keyboard: inputKeyboard(id)}, nil
	}

	t, err := d.owned(ctx, userID, id)
	if err != nil {
		d.sessions.End(userID)
		return Reply{}, err
	}

	patch := core.TransactionPatch{Amount: &amount, Kind: &kind}
	if kind != t.Kind {
		category, err := d.ledger.DeriveCategory(ctx, userID, kind, t.Description)
		if err != nil {
			d.sessions.End(userID)
			return Reply{}, err
		}
		patch.Category = &category
	}
	if err := d.update(ctx, id, patch); err != nil {
		d.sessions.End(userID)
		return Reply{}, err
	}
	d.sessions.End(userID)
	return d.updatedCard(ctx, userID, id, fmt.Sprintf("✅ Сумма изменена на: %d руб.", amount))
}

// applyDescription stores a new description; expenses are reclassified from it.
func (d *Dispatcher) applyDescription(ctx context.Context, userID, id int64, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{Text: msgEmptyDescription, Keyboard: inputKeyboard(id)}, nil
	}

	t, err := d.owned(ctx, userID, id)
	if err != nil {
		d.sessions.End(userID)
		return Reply{}, err
	}

	patch := core.TransactionPatch{Description: &text}
	if t.Kind == core.Expense {
		category, err := d.ledger.DeriveCategory(ctx, userID, core.Expense, text)
		if err != nil {
			d.sessions.End(userID)
			return Reply{}, err
		}
		patch.Category = &category
	}
	if err := d.update(ctx, id, patch); err != nil {
		if errors.Is(err, core.ErrValidation) {
			return Reply{Text: "❌ " + validationMessage(err), Keyboard: inputKeyboard(id)}, nil
		}
		d.sessions.End(userID)
		return Reply{}, err
	}
	d.sessions.End(userID)
	return d.updatedCard(ctx, userID, id, "✅ Описание изменено на: "+text)
}

func (d *Dispatcher) update(ctx context.Context, id int64, patch core.TransactionPatch) error {
	ok, err := d.ledger.Update(ctx, id, patch)
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrNotFound
	}
	return nil
}

// updatedCard reloads the transaction and shows it under a status line.
func (d *Dispatcher) updatedCard(ctx context.Context, userID, id int64, status string) (Reply, error) {
	t, err := d.owned(ctx, userID, id)
	if err != nil {
		return Reply{}, err
	}
	d.logger.InfoContext(ctx, "Transaction updated",
		log.FieldUserID, userID,
		log.FieldTransactionID, id,
		log.FieldKind, t.Kind,
		log.FieldCategory, t.Category)
	return Reply{Text: status + "\n\n" + d.formatCard("Операция обновлена", *t), Keyboard: editKeyboard(id)}, nil
}
