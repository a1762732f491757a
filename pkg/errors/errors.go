package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：键的当前值已被其他操作修改
// 由存储层的 CompareAndSwap 返回，调用方应重新读取后再决定如何处理
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请重新读取后重试")
