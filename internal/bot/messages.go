package bot

const welcomeText = `💼 Бот для учета финансов

Добавить трату:
500 еда
1500 бензин

Добавить доход:
+50000 зарплата

📂 Персональные категории:
/add_category Еда продукты,магазин
/my_categories
/delete_category Еда

📊 Визуальная статистика:
/chart - диаграмма расходов
/history - история по месяцам

📈 Команды:
/list - все операции
/balance - баланс
/stats - статистика
/month - за месяц
/categories - все категории
/clear - очистить историю
/cancel - отменить редактирование`

const (
	msgEntryFormatHelp   = "Не понимаю формат. Используйте:\n\nДля расходов: 500 еда\nДля доходов: +50000 зарплата"
	msgAmountFormat      = "❌ Неверный формат суммы. Используйте: 500 или +5000"
	msgAmountNotPositive = "❌ Сумма должна быть положительной"
	msgEmptyDescription  = "❌ Описание не может быть пустым"
	msgNotFound          = "❌ Операция не найдена"
	msgInternalError     = "❌ Произошла ошибка при обработке запроса"
	msgUnknownCommand    = "Неизвестная команда. Список команд: /help"
	msgUnknownAction     = "❌ Неизвестное действие"

	msgNoOperations     = "У вас пока нет операций."
	msgNoExpenses       = "📊 У вас пока нет расходов для статистики."
	msgNoMonthOps       = "📅 За текущий месяц операций нет."
	msgNoHistory        = "📅 Недостаточно данных для построения графика истории."
	msgCleared          = "🗑 История операций очищена."
	msgDeleted          = "✅ Операция удалена!"
	msgTypeChanged      = "✅ Тип операции изменен!"
	msgIncomeNoCategory = "❌ Нельзя изменить категорию для доходов"
	msgCancelled        = "Редактирование отменено."
	msgNothingToCancel  = "Нет активного редактирования."

	msgEnterAmount      = "💵 Введите новую сумму:\n\nПример: 1500 или +5000"
	msgEnterDescription = "📝 Введите новое описание:\n\nПример: продукты в Пятерочке"
	msgChooseCategory   = "📂 Выберите новую категорию:"

	msgCategoriesMenu = "📂 Управление категориями\n\nЗдесь вы можете настроить свои персональные категории для автоматического определения трат."
	msgNoPersonal     = "📂 Ваши персональные категории\n\nУ вас пока нет персональных категорий.\n\nДобавьте их через меню или командой:\n/add_category Название ключевые,слова"
	msgStandardFooter = "\nℹ️ Эти категории используются, если не найдено совпадение в ваших персональных категориях."
)

const addCategoryHelp = `Добавление категории

Используйте команду:
/add_category Название ключевые,слова,через,запятую

Пример:
/add_category Фриланс заказ,проект,удаленка
/add_category Еда продукты,магазин,молоко,хлеб

После добавления категории траты с этими ключевыми словами будут автоматически попадать в вашу категорию.`

const deleteCategoryHelp = `Удаление категории

Используйте команду:
/delete_category Название_категории

Пример:
/delete_category Фриланс

Посмотреть ваши категории: /my_categories`
