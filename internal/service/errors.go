// Package service implements the catalog's consistency operations: every
// read-modify-write over the users, subjects and resources collections.
package service

import (
	"errors"

	"github.com/prn-tf/itlibrary/internal/domain"
	"github.com/prn-tf/itlibrary/internal/lock"
)

// Success messages shown by callers.
const (
	MsgRegistered      = "تم إنشاء الحساب بنجاح"
	MsgLoggedIn        = "تم تسجيل الدخول بنجاح!"
	MsgSubjectAdded    = "تمت إضافة المادة بنجاح"
	MsgSubjectDeleted  = "تم حذف المادة ومصادرها بنجاح"
	MsgResourceAdded   = "تمت إضافة المصدر بنجاح"
	MsgResourceDeleted = "تم حذف المصدر بنجاح"
	MsgImported        = "تم استيراد البيانات بنجاح"
)

// failureMessages maps known errors to the message shown for them.
var failureMessages = []struct {
	err     error
	message string
}{
	{domain.ErrDuplicateUsername, "اسم المستخدم موجود مسبقاً"},
	{domain.ErrInvalidCredentials, "اسم المستخدم أو كلمة المرور غير صحيحة"},
	{domain.ErrInvalidStage, "المرحلة الدراسية غير صالحة"},
	{domain.ErrNotLoggedIn, "يجب تسجيل الدخول أولاً"},
	{domain.ErrAccessDenied, "غير مصرح لك بهذه العملية"},
	{domain.ErrDuplicateSubjectID, "رمز المادة موجود مسبقاً"},
	{domain.ErrSubjectNotFound, "المادة غير موجودة"},
	{domain.ErrDuplicateResourceID, "رمز المصدر موجود مسبقاً"},
	{domain.ErrResourceNotFound, "المصدر غير موجود"},
	{domain.ErrMalformedImportDocument, "ملف الاستيراد غير صالح"},
	{domain.ErrStorageUnavailable, "تعذر حفظ البيانات، حاول مرة أخرى"},
	{lock.ErrNotAcquired, "النظام مشغول حالياً، حاول مرة أخرى"},
}

const msgUnexpected = "حدث خطأ غير متوقع"

// Result is the {success, message} shape UI callers display.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewResult converts an operation's error into a Result. A nil err
// yields a success carrying okMessage.
func NewResult(err error, okMessage string) Result {
	if err == nil {
		return Result{Success: true, Message: okMessage}
	}
	return Result{Success: false, Message: FailureMessage(err)}
}

// FailureMessage returns the user-facing message for err.
func FailureMessage(err error) string {
	for _, fm := range failureMessages {
		if errors.Is(err, fm.err) {
			return fm.message
		}
	}
	return msgUnexpected
}
