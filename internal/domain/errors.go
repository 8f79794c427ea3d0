package domain

import (
	"errors"
	"fmt"
)

var (
	// Ошибка отсутствующего имени товара.
	ErrProductNameRequired = errors.New("product name is required")
	// Ошибка отрицательной цены товара.
	ErrPriceNegative = errors.New("price must be non-negative")
	// Ошибка отрицательного остатка на складе.
	ErrStockNegative = errors.New("stock must be non-negative")
	// Ошибка процента скидки вне диапазона [0,100].
	ErrDiscountOutOfRange = errors.New("discount must be between 0 and 100")
	// Ошибка, если задано только одно из полей trade-offer.
	ErrTradeOfferIncomplete = errors.New("trade offer requires both min_qty and get_qty")
	// Ошибка неположительных количеств в trade-offer.
	ErrTradeOfferQtyInvalid = errors.New("trade offer quantities must be greater than zero")
	// Ошибка одновременно заданных скидки и trade-offer.
	ErrOfferConflict = errors.New("product cannot have both discount and trade offer")
	// Ошибка, если задана только одна граница окна акции.
	ErrOfferWindowIncomplete = errors.New("offer window requires both start and end dates")
	// Ошибка окна акции с концом раньше начала.
	ErrOfferWindowInverted = errors.New("offer window end must not precede start")
	// Ошибка окна акции без самой акции.
	ErrOfferWindowWithoutOffer = errors.New("offer window requires a discount or trade offer")

	// ErrProductNotFound возвращается, если товар не найден в хранилище.
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock возвращается, когда остатка не хватает на
	// запрошенное количество вместе с бесплатными единицами.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidOffer агрегирует нарушения конфигурации акции товара.
	ErrInvalidOffer = errors.New("invalid offer configuration")
	// ErrSaleNotFound возвращается, если продажа не найдена.
	ErrSaleNotFound = errors.New("sale not found")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken возвращается при регистрации на занятый email.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrInvalidCredentials возвращается при неверной паре email/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken возвращается при невалидном или истёкшем токене.
	ErrInvalidToken = errors.New("invalid token")
)

// ProductNotFoundError указывает, какой товар из запроса продажи отсутствует.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product with ID %s not found", e.ProductID)
}

// Is позволяет сопоставлять ошибку с ErrProductNotFound через errors.Is.
func (e *ProductNotFoundError) Is(target error) bool {
	return target == ErrProductNotFound
}

// InsufficientStockError описывает нехватку остатка по конкретному товару.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Available   int
	Required    int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"insufficient stock for product %q: available %d, required %d",
		e.ProductName, e.Available, e.Required,
	)
}

// Is позволяет сопоставлять ошибку с ErrInsufficientStock через errors.Is.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// InvalidOfferError собирает все нарушения конфигурации акции товара.
type InvalidOfferError struct {
	Violations []error
}

func (e *InvalidOfferError) Error() string {
	if len(e.Violations) == 0 {
		return ErrInvalidOffer.Error()
	}
	msg := ErrInvalidOffer.Error() + ":"
	for _, v := range e.Violations {
		msg += " " + v.Error() + ";"
	}
	return msg[:len(msg)-1]
}

// Is позволяет сопоставлять ошибку с ErrInvalidOffer через errors.Is.
func (e *InvalidOfferError) Is(target error) bool {
	return target == ErrInvalidOffer
}

// IsProductNotFound проверяет, является ли ошибка отсутствием товара.
func IsProductNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound)
}

// IsInsufficientStock проверяет, является ли ошибка нехваткой остатка.
func IsInsufficientStock(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}
