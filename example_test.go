package cosynight_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/tj-smith47/cosynight-go"
	"github.com/tj-smith47/cosynight-go/cosynighttest"
)

func ExampleNewClient() {
	store := cosynight.NewFileTokenStore("token.json")
	client, err := cosynight.NewClient(store, cosynight.WithTimeout(10*time.Second))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := client.Authenticate(ctx, "you@example.com", "secret"); err != nil {
		log.Fatal(err)
	}

	devices, err := client.ListDevices(ctx)
	if err != nil {
		log.Fatal(err)
	}
	for _, d := range devices {
		fmt.Printf("Device: %s\n", d.Name)
	}
}

func ExampleClient_Quickstart() {
	server := cosynighttest.NewServer()
	defer server.Close()
	server.AddUser("you@example.com", "secret")
	server.AddDevice(cosynight.Status{ID: "dev1", Name: "Bedroom", BodySetting: 2, FeetSetting: 4})

	client, _ := cosynight.NewClient(cosynight.NewMemoryTokenStore(nil), cosynight.WithBaseURL(server.URL))
	ctx := context.Background()
	if err := client.Authenticate(ctx, "you@example.com", "secret"); err != nil {
		log.Fatal(err)
	}

	// Warm the feet, keep the body zone where it is.
	st, err := client.GetStatus(ctx, "dev1")
	if err != nil {
		log.Fatal(err)
	}
	if err := client.Quickstart(ctx, cosynight.QuickstartFromStatus(*st, st.BodySetting, 8)); err != nil {
		log.Fatal(err)
	}

	st, _ = client.GetStatus(ctx, "dev1")
	fmt.Printf("%s: body %d, feet %d for %s\n", st.Name, st.BodySetting, st.FeetSetting, time.Duration(st.Timer)*time.Second)
	// Output: Bedroom: body 2, feet 8 for 1h0m0s
}

func ExampleIsNotAuthenticated() {
	client, _ := cosynight.NewClient(cosynight.NewMemoryTokenStore(nil))

	_, err := client.ListDevices(context.Background())
	if cosynight.IsNotAuthenticated(err) {
		fmt.Println("sign in first")
	}
	fmt.Println(errors.Is(err, cosynight.ErrNotAuthenticated))
	// Output:
	// sign in first
	// true
}
