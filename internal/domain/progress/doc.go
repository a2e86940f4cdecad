// Package progress содержит движок прогресса StudyBuddy: опыт (XP), уровни,
// серии активных дней и бейджи.
//
// Все вычисления - чистые функции от переданных данных. Пакет ничего не
// читает и не пишет сам: записи прогресса, количество ресурсов и шарингов
// приходят из репозиториев (реализации в infrastructure).
//
// # Основные компоненты
//
//   - LevelTable: упорядоченная таблица порогов опыта и названий уровней
//   - ComputeExperience: взвешенная сумма активности пользователя
//   - StreakCalculator: самая длинная и текущая серия календарных дней
//   - TierThresholds / ResolveTier: уровень бейджа по количеству действий
//   - Engine: собирает всё вместе в карточку профиля (ProfileCard)
//
// # Поток данных
//
//	records, resources, shares -> ComputeExperience -> XP -> LevelTable.Resolve
//	record timestamps          -> StreakCalculator  -> streak (входит в XP)
//	activity counts            -> ResolveTier       -> BadgeTier
//
// # Пример
//
//	engine := progress.NewEngine(progress.DefaultEngineConfig())
//	card, err := engine.BuildProfile(progress.ProfileInput{
//	    UserID:         userID,
//	    ResourceCount:  3,
//	    SharesReceived: 2,
//	    Records:        records,
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(card.Level.Level, card.Level.Name)
//
// Невалидные входные данные (отрицательный опыт, оценки вне 0..100, пустые
// метки времени) отклоняются ошибками, совместимыми с errors.Is и
// shared.ErrInvalidInput / shared.ErrNegativeValue / shared.ErrValueOutOfRange.
package progress
