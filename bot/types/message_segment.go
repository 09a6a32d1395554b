package types

import "strings"

type ElementType int

const (
	Text ElementType = iota
	At
	Image
	Reply
	File
	Record
	Poke
)

type IMessageElement interface {
	Type() ElementType
}

type TextElement struct {
	Content string
}

func (e *TextElement) Type() ElementType { return Text }

type AtElement struct {
	Target string
}

func (e *AtElement) Type() ElementType { return At }

// ImageElement 图片消息段，URL 与本地文件路径二选一
type ImageElement struct {
	URL  string
	File string
}

func (e *ImageElement) Type() ElementType { return Image }

type ReplyElement struct {
	ReplySeq string
	Sender   string
	GroupID  string
	Elements []IMessageElement
}

func (e *ReplyElement) Type() ElementType { return Reply }

type FileElement struct {
	ContentType string
	File        string
	URL         string
}

func (e *FileElement) Type() ElementType { return File }

type RecordElement struct {
	File *FileElement
}

func (e *RecordElement) Type() ElementType { return Record }

type PokeElement struct {
	Target string
}

func (e *PokeElement) Type() ElementType { return Poke }

type MessageSegments []IMessageElement

// ToText 提取所有文本段拼接为纯文本，非文本段被忽略
func (ms MessageSegments) ToText() string {
	var builder strings.Builder
	for _, elem := range ms {
		if textElem, ok := elem.(*TextElement); ok {
			builder.WriteString(textElem.Content)
		}
	}
	return builder.String()
}

// FirstImage 返回消息中的第一个图片段，没有则返回 nil
func (ms MessageSegments) FirstImage() *ImageElement {
	for _, elem := range ms {
		if img, ok := elem.(*ImageElement); ok {
			return img
		}
	}
	return nil
}
