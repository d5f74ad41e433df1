package service

import (
	"UFresher/internal/apperror"
	"UFresher/internal/repository/mysql"
)

// notFoundOr 把 gorm 的记录不存在转成 NotFound，其余错误原样返回
func notFoundOr(err error, resource string, id any) error {
	if mysql.IsNotFound(err) {
		return apperror.NotFound(resource, id)
	}
	return err
}
