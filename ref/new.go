package ref

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// constructor 包装一个已注册的构造函数
// 支持的签名：func() T, func() (T, error), func(O) T, func(O) (T, error)
type constructor struct {
	fn           reflect.Value
	paramType    reflect.Type // 无参数时为 nil
	returnsError bool
}

func newConstructor(newFunc any) (*constructor, error) {
	fv := reflect.ValueOf(newFunc)
	if fv.Kind() != reflect.Func {
		return nil, fmt.Errorf("newFunc must be a function, got %T", newFunc)
	}

	ft := fv.Type()
	if ft.NumIn() > 1 {
		return nil, fmt.Errorf("newFunc must have 0 or 1 input parameters, got %d", ft.NumIn())
	}
	if ft.NumOut() != 1 && ft.NumOut() != 2 {
		return nil, fmt.Errorf("newFunc must have 1 or 2 return values, got %d", ft.NumOut())
	}
	if ft.NumOut() == 2 && !ft.Out(1).Implements(errorType) {
		return nil, fmt.Errorf("second return value must be error type")
	}

	c := &constructor{
		fn:           fv,
		returnsError: ft.NumOut() == 2,
	}
	if ft.NumIn() == 1 {
		c.paramType = ft.In(0)
	}
	return c, nil
}

func (c *constructor) new(options any) (any, error) {
	var args []reflect.Value
	if c.paramType != nil {
		arg, err := c.argument(options)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	results := c.fn.Call(args)
	if c.returnsError && !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}
	return results[0].Interface(), nil
}

// argument 把 options 转成构造函数需要的参数类型
// nil 会传入参数类型的零值（指针类型即 nil），由构造函数自行决定默认值
func (c *constructor) argument(options any) (reflect.Value, error) {
	if options == nil {
		return reflect.Zero(c.paramType), nil
	}

	if convertable, ok := options.(Convertable); ok {
		return convert(convertable, c.paramType)
	}

	ov := reflect.ValueOf(options)
	switch {
	case ov.Type().AssignableTo(c.paramType):
		return ov, nil
	case c.paramType.Kind() == reflect.Ptr && ov.Type().AssignableTo(c.paramType.Elem()):
		// 传入值类型，构造函数需要指针
		ptr := reflect.New(c.paramType.Elem())
		ptr.Elem().Set(ov)
		return ptr, nil
	case ov.Kind() == reflect.Ptr && !ov.IsNil() && ov.Elem().Type().AssignableTo(c.paramType):
		return ov.Elem(), nil
	case ov.Kind() == reflect.Map:
		// 配置文件解码出的通用树
		return convert(tree{options}, c.paramType)
	}
	return reflect.Value{}, fmt.Errorf("options of type %T cannot be used as %v", options, c.paramType)
}

// Convertable 可以把自身转换成任意结构体的配置数据
// 实现了该接口的 options 会被自动转换成构造函数期望的参数类型
type Convertable interface {
	// ConvertTo 将数据写入 object，object 为指向目标对象的指针
	ConvertTo(object any) error
}

func convert(convertable Convertable, paramType reflect.Type) (reflect.Value, error) {
	if paramType.Kind() == reflect.Ptr {
		target := reflect.New(paramType.Elem())
		if err := convertable.ConvertTo(target.Interface()); err != nil {
			return reflect.Value{}, fmt.Errorf("failed to convert options to %v: %w", paramType, err)
		}
		return target, nil
	}

	target := reflect.New(paramType)
	if err := convertable.ConvertTo(target.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("failed to convert options to %v: %w", paramType, err)
	}
	return target.Elem(), nil
}

// tree 未经类型化的配置数据，通过 YAML 往返转换到目标类型
type tree struct {
	data any
}

func (t tree) ConvertTo(object any) error {
	buf, err := yaml.Marshal(t.data)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(buf, object)
}

var registry sync.Map // key -> *registration

type registration struct {
	original    any
	constructor *constructor
}

func key(namespace, type_ string) string {
	return namespace + ":" + type_
}

func sameFunc(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// Register 以 namespace + type 注册构造函数
// 重复注册同一个函数会被忽略，注册不同函数返回错误
func Register(namespace string, type_ string, newFunc any) error {
	k := key(namespace, type_)

	if existing, ok := registry.Load(k); ok {
		if sameFunc(existing.(*registration).original, newFunc) {
			return nil
		}
		return fmt.Errorf("constructor for %s already registered with different function", k)
	}

	c, err := newConstructor(newFunc)
	if err != nil {
		return fmt.Errorf("failed to create constructor for %s: %w", k, err)
	}

	if actual, loaded := registry.LoadOrStore(k, &registration{original: newFunc, constructor: c}); loaded {
		if !sameFunc(actual.(*registration).original, newFunc) {
			return fmt.Errorf("constructor for %s already registered with different function", k)
		}
	}
	return nil
}

// typeKey 从类型参数推导 namespace（包路径）和 type（类型名）
func typeKey[T any]() (string, string, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return "", "", fmt.Errorf("cannot determine package path or type name for type %v", t)
	}
	return t.PkgPath(), t.Name(), nil
}

// RegisterT 使用 T 的包路径和类型名注册构造函数
func RegisterT[T any](newFunc any) error {
	namespace, type_, err := typeKey[T]()
	if err != nil {
		return err
	}
	return Register(namespace, type_, newFunc)
}

func MustRegister(namespace string, type_ string, newFunc any) {
	if err := Register(namespace, type_, newFunc); err != nil {
		panic(err)
	}
}

func MustRegisterT[T any](newFunc any) {
	if err := RegisterT[T](newFunc); err != nil {
		panic(err)
	}
}

// TypeOptions 描述通过注册表创建对象所需的信息
type TypeOptions struct {
	Namespace string `yaml:"namespace"`
	Type      string `yaml:"type" validate:"required"`
	Options   any    `yaml:"options"`
}

// New 调用 namespace:type 对应的构造函数
func New(namespace string, type_ string, options any) (any, error) {
	value, ok := registry.Load(key(namespace, type_))
	if !ok {
		return nil, fmt.Errorf("constructor not found for %s", key(namespace, type_))
	}
	return value.(*registration).constructor.new(options)
}

// NewT 使用 T 推导出的 namespace/type 创建对象，并断言为 T
func NewT[T any](options any) (T, error) {
	var zero T

	namespace, type_, err := typeKey[T]()
	if err != nil {
		return zero, err
	}

	obj, err := New(namespace, type_, options)
	if err != nil {
		return zero, err
	}

	result, ok := obj.(T)
	if !ok {
		return zero, fmt.Errorf("created object %T is not of type %T", obj, zero)
	}
	return result, nil
}

// Registered 返回所有已注册的 namespace:type，按字典序排列
func Registered() []string {
	var keys []string
	registry.Range(func(k, _ any) bool {
		keys = append(keys, k.(string))
		return true
	})
	sort.Strings(keys)
	return keys
}
