package utils

func Map[T any, R any](a []T, mapper func(T) R) []R {
	res := make([]R, len(a))
	for i, v := range a {
		res[i] = mapper(v)
	}
	return res
}

func IndexOf[T comparable](a []T, v T) int {
	for i, val := range a {
		if val == v {
			return i
		}
	}
	return -1
}

func Contains[T comparable](a []T, v T) bool {
	return IndexOf(a, v) != -1
}
