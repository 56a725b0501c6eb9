// Утилитарные функции общего назначения
package utils

// Ptr возвращает указатель на копию v.
func Ptr[T any](v T) *T {
	return &v
}

// ClonePtr копирует значение под указателем, nil остаётся nil.
func ClonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	return Ptr(*p)
}
